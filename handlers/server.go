package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/nijaru/yt-stt/config"
	"github.com/nijaru/yt-stt/middleware"
	"github.com/nijaru/yt-stt/utils"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether an optional dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	transcribe *TranscribeHandler
	history    Pinger
	config     *config.Config
	logger     *logrus.Logger
	server     *http.Server
	startTime  time.Time
}

type ServerOption func(*Server)

func NewServer(cfg *config.Config, service Transcriber, opts ...ServerOption) *Server {
	var limiter Limiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	s := &Server{
		transcribe: NewTranscribeHandler(service, cfg.Whisper.DefaultLanguage, limiter),
		config:     cfg,
		logger:     logrus.StandardLogger(),
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHistory adds the history store to the health check.
func WithHistory(p Pinger) ServerOption {
	return func(s *Server) {
		s.history = p
	}
}

func (s *Server) Start() error {
	s.logger.WithField("port", s.config.ServerPort).Info("Starting server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Handler returns the routed mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// No method in the pattern so other verbs get a JSON 405 from the handler.
	mux.Handle("/transcribe", s.transcribe)
	mux.Handle("/api/stt", s.transcribe)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.middleware(mux)
}

func (s *Server) middleware(handler http.Handler) http.Handler {
	return middleware.Chain(handler,
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.Recovery(s.logger),
		middleware.Compress(s.config.CompressEnabled),
		middleware.Headers(),
		middleware.Timeout(s.config.RequestTimeout),
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"ok":      true,
		"status":  "ok",
		"version": s.config.Version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	}
	code := http.StatusOK

	if s.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.history.Ping(ctx); err != nil {
			middleware.GetLogger(r.Context()).WithError(err).Error("History store unreachable")
			status["ok"] = false
			status["status"] = "degraded"
			status["history"] = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			status["history"] = "ok"
		}
	}

	if s.config.Debug {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		status["goroutines"] = runtime.NumGoroutine()
		status["memory"] = map[string]any{
			"allocated": m.Alloc,
			"system":    m.Sys,
			"gc_cycles": m.NumGC,
		}
	}

	utils.RespondWithJSON(w, code, status)
}
