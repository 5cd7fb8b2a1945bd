// Package http exposes a session controller over HTTP with chi, plus a websocket live link.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/tapestry"
	"github.com/aretw0/tapestry/internal/logging"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/observability"
	"github.com/aretw0/tapestry/pkg/ports"
	"github.com/aretw0/tapestry/pkg/runner"
)

// Server serves the play API of one session controller.
type Server struct {
	Engine  ports.SessionController
	Live    *observability.Aggregator
	Metrics http.Handler
	Logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithLive enables GET /worlds/{world}/live, streaming the aggregator's diffs over a websocket.
func WithLive(agg *observability.Aggregator) Option {
	return func(s *Server) {
		s.Live = agg
	}
}

// WithMetrics mounts a metrics handler (e.g. promhttp) at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// SubmitRequest is the body of POST /worlds/{world}/submit.
type SubmitRequest struct {
	// EntryID is the entry being left. It guards against double submission.
	EntryID string              `json:"entry_id"`
	Outcome domain.RouteOutcome `json:"outcome"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.SessionController, opts ...Option) http.Handler {
	s := &Server{
		Engine: engine,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/worlds/{world}", func(r chi.Router) {
		r.Get("/introspect", s.Introspect)
		r.Get("/passage", s.Passage)
		r.Get("/history", s.History)
		r.Post("/submit", s.Submit)
		r.Post("/restart", s.Restart)
		if s.Live != nil {
			r.Get("/live", s.LiveLink)
		}
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "tapestry-http",
		"version": strings.TrimSpace(tapestry.Version),
	})
}

// Introspect handles GET /worlds/{world}/introspect.
func (s *Server) Introspect(w http.ResponseWriter, r *http.Request) {
	info, err := s.Engine.Introspect(r.Context(), chi.URLParam(r, "world"))
	if err != nil {
		s.writeError(w, "introspect", err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

// Passage handles GET /worlds/{world}/passage: the current passage of the World.
func (s *Server) Passage(w http.ResponseWriter, r *http.Request) {
	resp, err := runner.ResumeAndRender(r.Context(), s.Engine, chi.URLParam(r, "world"))
	if err != nil {
		s.writeError(w, "passage", err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// History handles GET /worlds/{world}/history?limit=N.
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid limit %q", raw)})
			return
		}
		limit = n
	}

	entries, err := s.Engine.History(r.Context(), chi.URLParam(r, "world"), limit)
	if err != nil {
		s.writeError(w, "history", err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// Submit handles POST /worlds/{world}/submit.
// A repeated submission for an entry already left answers 200 with state.duplicate set.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn("submit: invalid request body", "err", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if body.EntryID == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "entry_id is required"})
		return
	}

	if body.Outcome.InputValue != "" {
		clean, err := runner.SanitizeInput(body.Outcome.InputValue)
		if err != nil {
			s.Logger.Warn("submit: input rejected", "err", err, "size", len(body.Outcome.InputValue))
			s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		body.Outcome.InputValue = clean
	}

	resp, err := runner.SubmitAndRender(r.Context(), s.Engine, chi.URLParam(r, "world"), body.EntryID, body.Outcome)
	if err != nil {
		s.writeError(w, "submit", err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// Restart handles POST /worlds/{world}/restart.
func (s *Server) Restart(w http.ResponseWriter, r *http.Request) {
	resp, err := runner.RestartAndRender(r.Context(), s.Engine, chi.URLParam(r, "world"))
	if err != nil {
		s.writeError(w, "restart", err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// StatusFor maps runtime errors onto HTTP status codes.
func StatusFor(err error) int {
	var integrityErr *domain.GraphIntegrityError
	switch {
	case errors.As(err, &integrityErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotInstalled), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOutcome):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoOpenRoute), errors.Is(err, domain.ErrAmbiguousRoute), errors.Is(err, domain.ErrMissingOrigin):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	} else {
		s.Logger.Debug(op+" rejected", "err", err, "status", status)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
