// Package server exposes the status pages' HTTP and websocket surface.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"transfer-status-backend/internal/api"
	"transfer-status-backend/internal/cache"
	"transfer-status-backend/internal/normalize"
	"transfer-status-backend/internal/resolver"
	"transfer-status-backend/internal/stats"
	"transfer-status-backend/internal/utils"
	"transfer-status-backend/internal/ws"
)

// Config holds HTTP server configuration.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	AllowedOrigin   string        `mapstructure:"allowed_origin"`
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxBodyBytes:    64 << 10,
		AllowedOrigin:   "*",
	}
}

// Deps are the components the handlers call into. API and Stats may be nil.
type Deps struct {
	Resolver     *resolver.Resolver
	LastTransfer *cache.LastTransfer
	Normalizer   *normalize.Normalizer
	Hub          *ws.Hub
	Stats        *stats.Collector
	API          *api.Client
}

// Server is the HTTP server.
type Server struct {
	config    Config
	deps      Deps
	logger    *utils.Logger
	startTime time.Time
	router    *mux.Router
}

// NewServer builds the router.
func NewServer(config Config, deps Deps) *Server {
	if deps.Normalizer == nil {
		deps.Normalizer = normalize.New()
	}
	s := &Server{
		config:    config,
		deps:      deps,
		logger:    utils.ServerLogger,
		startTime: time.Now(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.requestIDMiddleware, s.corsMiddleware)

	apiRoutes := r.PathPrefix("/api").Subrouter()
	apiRoutes.HandleFunc("/transfers/status", s.handleStatus).Methods(http.MethodGet)
	apiRoutes.HandleFunc("/transfers/last", s.handleSaveLast).Methods(http.MethodPost)
	apiRoutes.HandleFunc("/transfers/normalize", s.handleNormalize).Methods(http.MethodPost)
	apiRoutes.HandleFunc("/transfers/{ref}", s.handleTransfer).Methods(http.MethodGet)
	apiRoutes.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	apiRoutes.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	apiRoutes.PathPrefix("/").HandlerFunc(s.handlePreflight).Methods(http.MethodOptions)

	// Health check endpoint (for compatibility)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.deps.Hub != nil {
		r.Handle("/ws", s.deps.Hub)
	}
	if s.deps.Stats != nil {
		r.Handle("/metrics", s.deps.Stats.Handler())
	}
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on config.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening on %s", s.config.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return utils.WrapError(err, utils.ErrorTypeInternal, "LISTEN_FAILED", "http server failed", "SERVER")
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server...")
	if s.deps.Hub != nil {
		s.deps.Hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
