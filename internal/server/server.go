// Package server - HTTP транспорт для web_search: листинг тулов, вызов, health и /metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/metrics"
	"github.com/kitbuilder587/websearch/internal/tool"
)

// тело вызова - маленький JSON, больше не читаем
const maxBodyBytes = 1 << 20

const shutdownTimeout = 10 * time.Second

type Tool interface {
	Name() string
	Definition() tool.Definition
	Execute(ctx context.Context, raw json.RawMessage) tool.Output
}

type Config struct {
	Addr        string
	CORSOrigins []string
	// MetricsHandler - по умолчанию глобальный registry
	MetricsHandler http.Handler
}

type Server struct {
	tools   map[string]Tool
	order   []string
	metrics *metrics.Metrics
	logger  *zap.Logger
	handler http.Handler
	srv     *http.Server
}

func New(cfg Config, tools []Tool, m *metrics.Metrics, logger *zap.Logger) *Server {
	s := &Server{
		tools:   make(map[string]Tool, len(tools)),
		metrics: m,
		logger:  logger,
	}
	for _, t := range tools {
		s.tools[t.Name()] = t
		s.order = append(s.order, t.Name())
	}

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = metrics.Handler()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /health", s.instrument("/health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /v1/tools", s.instrument("/v1/tools", http.HandlerFunc(s.handleListTools)))
	mux.Handle("POST /v1/tools/{name}", s.instrument("/v1/tools/{name}", http.HandlerFunc(s.handleCallTool)))
	mux.Handle("GET /metrics", metricsHandler)

	// порядок: CORS -> Recovery -> роуты
	var handler http.Handler = mux
	handler = Recovery(logger)(handler)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	}).Handler(handler)

	s.handler = handler
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// провайдеры пробуются последовательно, у каждого до 30s
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run слушает до отмены ctx, потом мягко гасит сервер.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	s.logger.Info("http server stopping")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	defs := make([]tool.Definition, 0, len(s.order))
	for _, name := range s.order {
		defs = append(defs, s.tools[name].Definition())
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"tools": defs})
}

// handleCallTool: исход тула (успех или отказ) всегда 200, IsError внутри тела.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	t, ok := s.tools[name]
	if !ok {
		RespondError(w, http.StatusNotFound, "unknown tool: "+name)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Debug("unreadable request body", zap.String("tool", name), zap.Error(err))
		RespondError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	out := t.Execute(r.Context(), body)
	RespondJSON(w, http.StatusOK, out)
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(route, rec.status)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
