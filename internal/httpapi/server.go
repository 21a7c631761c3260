package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"twitter-insights/internal/insight"
	"twitter-insights/internal/model"
	"twitter-insights/internal/storage"
)

// Server exposes the insight pipeline and snapshot store over HTTP. The
// /v1/public/ routes only ever see public snapshots; everything else is the
// admin surface (authentication is handled upstream, not here).
type Server struct {
	server   *http.Server
	mux      *http.ServeMux
	insights *insight.Service
	registry *storage.RegistryStore
	posts    PostReader
}

// PostReader is the slice of the post store the per-account listing needs.
type PostReader interface {
	LoadWindow(ctx context.Context, handles []string, w insight.Window, filter model.PostType, skip, limit int) (int, []model.Post, error)
}

func NewServer(addr string, insights *insight.Service, registry *storage.RegistryStore, posts PostReader) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		insights: insights,
		registry: registry,
		posts:    posts,
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // analyzer calls run inside requests
		IdleTimeout:  120 * time.Second,
	}

	// Admin surface
	s.mux.HandleFunc("GET /v1/insights", s.GetInsights)
	s.mux.HandleFunc("POST /v1/insights/snapshots", s.TriggerSnapshot)
	s.mux.HandleFunc("POST /v1/insights/reports", s.GenerateReport)
	s.mux.HandleFunc("GET /v1/insights/reports", s.ListReports)
	s.mux.HandleFunc("PUT /v1/insights/snapshots/{id}/visibility", s.SetVisibility)
	s.mux.HandleFunc("DELETE /v1/insights/snapshots/{id}", s.DeleteSnapshot)
	s.mux.HandleFunc("GET /v1/lines", s.ListLines)
	s.mux.HandleFunc("POST /v1/lines", s.CreateLine)
	s.mux.HandleFunc("GET /v1/lines/{id}", s.GetLine)
	s.mux.HandleFunc("GET /v1/accounts/{handle}/posts", s.ListAccountPosts)

	// Public surface: is_public snapshots only
	s.mux.HandleFunc("GET /v1/public/snapshots", s.ListPublicSnapshots)
	s.mux.HandleFunc("GET /v1/public/snapshots/latest", s.LatestPublicSnapshot)
	s.mux.HandleFunc("GET /v1/public/snapshots/{id}", s.GetSnapshot)
	s.mux.HandleFunc("GET /v1/public/snapshots/{id}/posts", s.RelatedPosts)

	return s
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	slog.Info("http: listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
