// Package api exposes graph snapshots and asset locations over HTTP.
//
// The server is the counterpart of [source.HTTPProvider] and [locate.HTTP]:
// one deployment runs `graphport serve` against its snapshot store, and
// explorer instances elsewhere point their source and resolver at it.
//
// Routes:
//
//	GET /healthz                      liveness probe
//	GET /api/views/{viewID}/graph     snapshot JSON for a view
//	GET /api/locate?token=...         asset location lookup (404 on miss)
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/graphport/graphport/pkg/errors"
	"github.com/graphport/graphport/pkg/locate"
	"github.com/graphport/graphport/pkg/source"
)

// Server serves the explorer HTTP API.
type Server struct {
	src      source.Provider
	resolver locate.Resolver
	logger   *log.Logger
}

// New creates a server. resolver may be nil, in which case every locate
// lookup is a miss. logger may be nil for the default logger.
func New(src source.Provider, resolver locate.Resolver, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{src: src, resolver: resolver, logger: logger}
}

// Router builds the chi router with request-ID, logging, and recovery
// middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/api/views/{viewID}/graph", s.handleGraph)
	r.Get("/api/locate", s.handleLocate)
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("api server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	if err := errors.ValidateViewID(viewID); err != nil {
		s.writeError(w, r, err)
		return
	}

	snap, err := s.src.Snapshot(r.Context(), viewID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := snap.Marshal()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := errors.ValidateToken(token); err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.resolver == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no location for token %q", token))
		return
	}
	loc, found, err := s.resolver.Resolve(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no location for token %q", token))
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// logRequests logs one line per request with the request ID and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// errorBody is the JSON shape of error responses.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed",
			"id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Code: string(code), Message: errors.UserMessage(err)})
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidToken,
		errors.ErrCodeInvalidViewID, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidSnapshot:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeViewNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork, errors.ErrCodeStoreUnavailable:
		return http.StatusBadGateway
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
