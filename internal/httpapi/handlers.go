package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"twitter-insights/internal/database"
	"twitter-insights/internal/insight"
	"twitter-insights/internal/model"
)

// GetInsights serves live insights for a line; nothing is persisted.
func (s *Server) GetInsights(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(r.URL.Query().Get("line_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line_id")
		return
	}
	hours := intQuery(r, "hours", 0)
	res, err := s.insights.Generate(r.Context(), lineID, hours)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// TriggerSnapshot runs analysis and persists the result.
func (s *Server) TriggerSnapshot(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(r.URL.Query().Get("line_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line_id")
		return
	}
	hours := intQuery(r, "hours", 0)
	snap, err := s.insights.TriggerSnapshot(r.Context(), lineID, hours)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

type reportRequest struct {
	LineID  uuid.UUID `json:"line_id"`
	Handles []string  `json:"handles"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// GenerateReport analyzes an explicit historical window for selected members.
func (s *Server) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	snap, err := s.insights.HistoricalReport(r.Context(), req.LineID, req.Handles,
		insight.Window{Start: req.Start, End: req.End})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// ListReports is the admin listing: all snapshots regardless of visibility.
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request) {
	f := model.SnapshotFilter{}
	if raw := r.URL.Query().Get("line_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid line_id")
			return
		}
		f.BusinessLineID = &id
	}
	snaps, err := s.insights.Snapshots.List(r.Context(), f, intQuery(r, "limit", 50))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// SetVisibility toggles a snapshot's public flag.
func (s *Server) SetVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot id")
		return
	}
	isPublic, err := strconv.ParseBool(r.URL.Query().Get("is_public"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "is_public must be true or false")
		return
	}
	snap, err := s.insights.Snapshots.SetVisibility(r.Context(), id, isPublic)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteSnapshot removes a snapshot; absent ids report 404.
func (s *Server) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot id")
		return
	}
	if err := s.insights.Snapshots.Delete(r.Context(), id); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPublicSnapshots only ever returns is_public records.
func (s *Server) ListPublicSnapshots(w http.ResponseWriter, r *http.Request) {
	f := model.SnapshotFilter{PublicOnly: true}
	q := r.URL.Query()
	if raw := q.Get("line_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid line_id")
			return
		}
		f.BusinessLineID = &id
	}
	if t, ok := timeQuery(q.Get("start")); ok {
		f.StartDate = &t
	}
	if t, ok := timeQuery(q.Get("end")); ok {
		f.EndDate = &t
	}
	snaps, err := s.insights.Snapshots.List(r.Context(), f, intQuery(r, "limit", 50))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// LatestPublicSnapshot returns the most recent public snapshot, or null.
func (s *Server) LatestPublicSnapshot(w http.ResponseWriter, r *http.Request) {
	var lineID *uuid.UUID
	if raw := r.URL.Query().Get("line_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid line_id")
			return
		}
		lineID = &id
	}
	snap, err := s.insights.Snapshots.Latest(r.Context(), lineID, true)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetSnapshot serves one snapshot by id.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot id")
		return
	}
	snap, err := s.insights.Snapshots.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// RelatedPosts resolves a snapshot node to its underlying posts.
func (s *Server) RelatedPosts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot id")
		return
	}
	nodeID := r.URL.Query().Get("node_id")
	if nodeID == "" {
		writeError(w, http.StatusBadRequest, "node_id is required")
		return
	}
	posts, err := s.insights.RelatedPosts(r.Context(), id, nodeID, intQuery(r, "limit", 20))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// ListLines lists all business lines.
func (s *Server) ListLines(w http.ResponseWriter, r *http.Request) {
	lines, err := s.registry.ListLines(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

type createLineRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Members     []model.Member `json:"members"`
}

// CreateLine registers a new business line with its tracked accounts.
func (s *Server) CreateLine(w http.ResponseWriter, r *http.Request) {
	var req createLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	line, err := s.registry.CreateLine(r.Context(), req.Name, req.Description, req.Members)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

// GetLine serves one business line.
func (s *Server) GetLine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	line, err := s.registry.GetLine(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

type accountPostsResponse struct {
	Total   int          `json:"total"`
	Records []model.Post `json:"records"`
}

// ListAccountPosts pages one account's posts within a window, with an
// optional type filter.
func (s *Server) ListAccountPosts(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	q := r.URL.Query()
	win := insight.Window{}
	if t, ok := timeQuery(q.Get("start")); ok {
		win.Start = t
	} else {
		win.Start = time.Now().UTC().Add(-24 * time.Hour)
	}
	if t, ok := timeQuery(q.Get("end")); ok {
		win.End = t
	}
	total, posts, err := s.posts.LoadWindow(r.Context(), []string{handle}, win,
		model.PostType(q.Get("type")), intQuery(r, "skip", 0), intQuery(r, "limit", 50))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, accountPostsResponse{Total: total, Records: posts})
}

func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func timeQuery(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("http: encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeFailure maps domain errors onto status codes: input errors are 400,
// missing records 404, everything else a logged 500.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, insight.ErrEmptyAccountSet),
		errors.Is(err, insight.ErrInvalidWindow),
		errors.Is(err, insight.ErrWindowTooLong),
		errors.Is(err, insight.ErrInvalidNode):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("http: request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
