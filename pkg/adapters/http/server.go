package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/paradigm"
	"github.com/aretw0/paradigm/internal/config"
	"github.com/aretw0/paradigm/internal/logging"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/ports"
	"github.com/aretw0/paradigm/pkg/sequence"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize bounds experiment documents posted for preview.
const maxBodySize = 1 << 20

// Server exposes sequence previews, stored trials and live trial streams.
type Server struct {
	Store   ports.TrialStore
	Streams *StreamManager

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStore serves stored trials from store. Without one the session routes answer 501.
func WithStore(store ports.TrialStore) Option {
	return func(s *Server) { s.Store = store }
}

// WithStreams shares a StreamManager with the runners publishing into it.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		if sm != nil {
			s.Streams = sm
		}
	}
}

// WithMetrics mounts /metrics for the given gatherer.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(opts ...Option) http.Handler {
	s := &Server{
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/sequence", s.PreviewSequence)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.DeleteSession)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/trials", s.ListTrials)
			r.Get("/trials/{trialNumber}", s.GetTrial)
		})
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
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
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "paradigm-http",
		"version": strings.TrimSpace(paradigm.Version),
	})
}

// SequenceResponse is the body of a sequence preview.
type SequenceResponse struct {
	Name   string         `json:"name"`
	Length int            `json:"length"`
	Cycles int            `json:"cycles"`
	Trials []domain.Trial `json:"trials"`
}

// PreviewSequence handles POST /sequence: the body is an experiment document (JSON, or
// YAML when the content type says so) and the response is its expanded sequence.
// A seed query parameter overrides the document's seed.
func (s *Server) PreviewSequence(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	isJSON := !strings.Contains(r.Header.Get("Content-Type"), "yaml")
	exp, err := config.Parse(body, isJSON)
	if err != nil {
		s.logger.Warn("PreviewSequence: invalid document", "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var opts []sequence.Option
	if raw := r.URL.Query().Get("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid seed %q", raw))
			return
		}
		opts = append(opts, sequence.WithSeed(seed))
	}
	opts = append(opts, sequence.WithLogger(s.logger))

	seq, err := exp.NewSequencer(opts...)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SequenceResponse{
		Name:   exp.Name,
		Length: seq.Len(),
		Cycles: seq.Cycles(),
		Trials: seq.Trials(),
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.Store.(ports.SessionLister)
	if !ok {
		writeError(w, http.StatusNotImplemented, "store cannot list sessions")
		return
	}
	sessions, err := lister.List(r.Context())
	if errors.Is(err, errors.ErrUnsupported) {
		writeError(w, http.StatusNotImplemented, "store cannot list sessions")
		return
	}
	if err != nil {
		s.storeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": sessions})
}

// ListTrials handles GET /sessions/{sessionID}/trials.
func (s *Server) ListTrials(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	numbers, err := s.Store.Trials(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int{"trials": numbers})
}

// GetTrial handles GET /sessions/{sessionID}/trials/{trialNumber}.
func (s *Server) GetTrial(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "trialNumber"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "trial number must be an integer")
		return
	}
	rec, err := s.Store.Load(r.Context(), chi.URLParam(r, "sessionID"), n)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.Store == nil {
		writeError(w, http.StatusNotImplemented, "no trial store configured")
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrTrialNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("store request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "store error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
