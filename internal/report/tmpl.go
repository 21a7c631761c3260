package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"twitter-insights/internal/model"
)

// Data is the rendering input for one report.
type Data struct {
	Title    string
	Datetime string
	Summary  string
	Topics   []model.TopicSummary
	Persons  []model.GraphNode
	Edges    []model.GraphEdge
}

//go:embed report.tmpl
var reportTpl string

var compiled = template.Must(template.New("report").Funcs(template.FuncMap{
	"f1": func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).Parse(reportTpl))

// FromSnapshot shapes a stored snapshot for rendering. Topic nodes are
// dropped from the person list; they are already covered by the topic
// section.
func FromSnapshot(s model.Snapshot) Data {
	d := Data{
		Title:    s.BusinessLineName,
		Datetime: s.AnalysisDate.UTC().Format("2006-01-02 15:04 UTC"),
		Summary:  s.RawDataSummary,
		Topics:   s.Topics,
		Edges:    s.Edges,
	}
	for _, n := range s.Nodes {
		if n.Type == model.NodeTypeUser {
			d.Persons = append(d.Persons, n)
		}
	}
	return d
}

// Render produces the markdown report.
func Render(d Data) (string, error) {
	var buf bytes.Buffer
	if err := compiled.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
