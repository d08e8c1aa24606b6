// Package api serves the model pipeline over HTTP.
//
// # Endpoints
//
//	GET    /healthz                     liveness probe
//	GET    /version                     build information
//	POST   /v1/axes                     build an axis from a recipe axis
//	POST   /v1/layers/validate          validate a layer against limits
//	POST   /v1/models                   generate (and store) a model from a recipe
//	GET    /v1/models                   list stored models, newest first
//	GET    /v1/models/{id}              export a stored model (?sections=&compress=)
//	DELETE /v1/models/{id}              delete a stored model
//
// Errors are JSON objects {"code": ..., "message": ...} using the codes of
// package errors. Construction errors of axes, borders and fill values map to
// 422, malformed requests to 400 and unknown models to 404.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/grunt/pkg/buildinfo"
	"github.com/matzehuels/grunt/pkg/observability"
	"github.com/matzehuels/grunt/pkg/pipeline"
)

const (
	// DefaultMaxBodyBytes bounds request bodies.
	DefaultMaxBodyBytes = 4 << 20

	// DefaultRequestTimeout bounds a single request, generation included.
	DefaultRequestTimeout = 60 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	Parallelism    int   // default parallelism for recipes that set none
	MaxCells       int64 // pipeline.Options.MaxCells for every generated model
}

// Server is the HTTP front end of a pipeline.Runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	cfg    Config
	router chi.Router
}

// New creates a server. The runner's Store backs the /v1/models endpoints;
// without one, models are generated but not retrievable.
func New(runner *pipeline.Runner, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	s := &Server{runner: runner, logger: logger, cfg: cfg}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, buildinfo.Get())
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/axes", s.handleAxis)
		r.Post("/layers/validate", s.handleValidateLayer)
		r.Route("/models", func(r chi.Router) {
			r.Post("/", s.handleCreateModel)
			r.Get("/", s.handleListModels)
			r.Get("/{id}", s.handleGetModel)
			r.Delete("/{id}", s.handleDeleteModel)
		})
	})
	return r
}

// logRequests logs each request and reports it to the HTTP hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		dur := time.Since(start)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)

		logf := s.logger.Info
		if status >= http.StatusInternalServerError {
			logf = s.logger.Error
		}
		logf("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", dur)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown", "error", err)
		}
	}()

	s.logger.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
