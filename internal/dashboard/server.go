// Package dashboard serves the monitoring HTTP API over the in-memory
// processing history and the scoring-log accuracy stats.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harborlaw/lead-qualifier/internal/processor"
	"github.com/harborlaw/lead-qualifier/pkg/airtable"
)

const recentLeadsLimit = 20

// Server exposes processing status endpoints.
type Server struct {
	history *processor.History
	store   airtable.Client
	port    int
	now     func() time.Time
}

// NewServer creates a dashboard server. store may be nil, which disables
// the accuracy block in /api/stats.
func NewServer(history *processor.History, store airtable.Client, port int) *Server {
	return &Server{
		history: history,
		store:   store,
		port:    port,
		now:     time.Now,
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/api/leads", s.handleLeads)
	r.Get("/api/stats", s.handleStats)

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down dashboard server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting dashboard server", zap.Int("port", s.port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "dashboard: server listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleLeads(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.history.Recent(recentLeadsLimit))
}

type statsResponse struct {
	processor.Stats
	Accuracy    *airtable.AccuracyStats `json:"accuracy,omitempty"`
	LastUpdated string                  `json:"last_updated"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Stats:       s.history.Stats(),
		LastUpdated: s.now().Format(time.RFC3339),
	}

	if s.store != nil {
		accuracy, err := s.store.AccuracyStats(r.Context())
		if err != nil {
			zap.L().Warn("failed to fetch accuracy stats", zap.Error(err))
		} else {
			resp.Accuracy = accuracy
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
