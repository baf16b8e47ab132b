// Package server exposes a fuzzer over HTTP and provides the matching client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sloth.dev/pkg/sloth/internal/domain"
	m "sloth.dev/pkg/sloth/internal/model"
)

// DefaultPageSize is the generation page size when count is omitted.
const DefaultPageSize = 50

// HTTPServer serves the control API and Prometheus metrics for a fuzzer.
type HTTPServer struct {
	addr     string
	fuzzer   domain.Fuzzer
	registry *prometheus.Registry
	handler  http.Handler
}

// NewHTTPServer builds the routes for fuzzer.
func NewHTTPServer(addr string, fuzzer domain.Fuzzer) (*HTTPServer, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(newStatCollector(fuzzer)); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	serv := &HTTPServer{addr: addr, fuzzer: fuzzer, registry: registry}

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)

	mux := http.NewServeMux()
	handle := func(pattern string, handler func(http.ResponseWriter, *http.Request)) {
		// recovery sits inside compression so a panic yields a 500 before the
		// gzip writer flushes its header
		mux.Handle(pattern, handlers.CompressHandler(recovery(http.HandlerFunc(handler))))
	}

	handle("GET /api/stat", serv.httpStat)
	handle("POST /api/start", serv.httpStart)
	handle("POST /api/stop", serv.httpStop)
	handle("POST /api/pause", serv.httpPause)
	handle("GET /api/generation", serv.httpGeneration)
	handle("GET /api/sample/{id...}", serv.httpSample)
	handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{DisableCompression: true}).ServeHTTP)

	serv.handler = handlers.CustomLoggingHandler(io.Discard, mux, logRequest)

	return serv, nil
}

// Handler returns the root handler.
func (serv *HTTPServer) Handler() http.Handler {
	return serv.handler
}

// Serve listens until ctx is cancelled.
func (serv *HTTPServer) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              serv.addr,
		Handler:           serv.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down http server", "error", err)
		}
	}()

	slog.Info("Serving http", "addr", serv.addr)

	err := server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (serv *HTTPServer) httpStat(w http.ResponseWriter, r *http.Request) {
	stat, err := serv.fuzzer.Stat(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stat)
}

func (serv *HTTPServer) httpStart(w http.ResponseWriter, r *http.Request) {
	serv.control(w, r, serv.fuzzer.Start)
}

func (serv *HTTPServer) httpStop(w http.ResponseWriter, r *http.Request) {
	serv.control(w, r, serv.fuzzer.Stop)
}

func (serv *HTTPServer) httpPause(w http.ResponseWriter, r *http.Request) {
	serv.control(w, r, serv.fuzzer.TogglePause)
}

func (serv *HTTPServer) control(w http.ResponseWriter, r *http.Request, op func(context.Context) error) {
	if err := op(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	stat, err := serv.fuzzer.Stat(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stat)
}

func (serv *HTTPServer) httpGeneration(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	offset, err := intParam(query.Get("offset"), 0)
	if err != nil {
		writeError(w, fmt.Errorf("%w: offset: %w", domain.ErrInvalidPage, err))
		return
	}

	count, err := intParam(query.Get("count"), DefaultPageSize)
	if err != nil {
		writeError(w, fmt.Errorf("%w: count: %w", domain.ErrInvalidPage, err))
		return
	}

	sortBy, err := m.ParseSortOrder(query.Get("sort"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", domain.ErrInvalidPage, err))
		return
	}

	onlyMutated := false
	if v := query.Get("mutated"); v != "" {
		if onlyMutated, err = strconv.ParseBool(v); err != nil {
			writeError(w, fmt.Errorf("%w: mutated: %w", domain.ErrInvalidPage, err))
			return
		}
	}

	snippets, err := serv.fuzzer.Generation(r.Context(), offset, count, sortBy, onlyMutated)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

func (serv *HTTPServer) httpSample(w http.ResponseWriter, r *http.Request) {
	detail, err := serv.fuzzer.Sample(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func intParam(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}

	return strconv.Atoi(value)
}

type errorBody struct {
	Error string `json:"error"`
}

// StatusFor maps control errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAlreadyRunning),
		errors.Is(err, domain.ErrNotRunning),
		errors.Is(err, domain.ErrLoopFinished):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidPage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSampleNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Failed to handle request", "error", err)
	}

	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func logRequest(_ io.Writer, params handlers.LogFormatterParams) {
	slog.Debug("Handled request",
		"method", params.Request.Method,
		"path", params.URL.Path,
		"status", params.StatusCode,
		"size", params.Size,
	)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(args ...any) {
	slog.Error("Recovered from panic in handler", "panic", fmt.Sprint(args...))
}
