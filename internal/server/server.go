// Package server exposes the thumbnail pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz        liveness probe, {"ok":true}
//	POST /v1/thumbnails  run one batch, respond with the batch report
//	GET  /metrics        Prometheus exposition (when configured)
//
// Every request gets an X-Request-Id header. Each POST is an independent
// batch run with its own icon cache.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/pipeline"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/render"
)

const (
	// MaxBodySize bounds request bodies.
	MaxBodySize = 1 << 20

	// MaxProjectIDs bounds the batch size of one request.
	MaxProjectIDs = 1000

	// RequestIDHeader carries the per-request id.
	RequestIDHeader = "X-Request-Id"

	shutdownTimeout = 30 * time.Second
)

// BatchRunner runs thumbnail batches. *pipeline.Runner implements it.
type BatchRunner interface {
	Run(ctx context.Context, projectIDs []string, opts pipeline.Options) (*pipeline.BatchReport, error)
}

// Server is the HTTP API.
type Server struct {
	runner   BatchRunner
	defaults pipeline.Options
	metrics  http.Handler
	logger   *log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the access logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server. defaults seeds every request's batch options;
// requests may override the worker count and render settings.
func New(runner BatchRunner, defaults pipeline.Options, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		defaults: defaults,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Post("/v1/thumbnails", s.handleThumbnails)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// thumbnailsRequest is the POST /v1/thumbnails body. Omitted fields keep the
// server defaults.
type thumbnailsRequest struct {
	ProjectIDs []string         `json:"project_ids"`
	Workers    pipeline.Workers `json:"workers"`
	Render     render.Config    `json:"render"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleThumbnails(w http.ResponseWriter, r *http.Request) {
	req := thumbnailsRequest{
		Workers: s.defaults.Workers,
		Render:  s.defaults.Render,
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.fail(w, r, http.StatusBadRequest, snaperrors.Wrap(snaperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(req.ProjectIDs) == 0 {
		s.fail(w, r, http.StatusBadRequest, snaperrors.New(snaperrors.ErrCodeInvalidInput, "project_ids must not be empty"))
		return
	}
	if len(req.ProjectIDs) > MaxProjectIDs {
		s.fail(w, r, http.StatusBadRequest, snaperrors.New(snaperrors.ErrCodeInvalidInput,
			"at most %d project ids per request, got %d", MaxProjectIDs, len(req.ProjectIDs)))
		return
	}

	opts := s.defaults
	opts.Workers = req.Workers
	opts.Render = req.Render
	opts.OnProgress = nil
	if err := opts.Validate(); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	opts.Logger = opts.Logger.With("request", requestIDFrom(r.Context()))

	report, err := s.runner.Run(r.Context(), req.ProjectIDs, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if snaperrors.Is(err, snaperrors.ErrCodeInvalidConfig) {
			status = http.StatusBadRequest
		}
		s.fail(w, r, status, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	code := snaperrors.GetCode(err)
	if code == "" {
		code = snaperrors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{
		Error:     snaperrors.UserMessage(err),
		Code:      string(code),
		RequestID: requestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
