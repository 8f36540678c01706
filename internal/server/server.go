// Package server exposes the categorization pipeline over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/Veraticus/spice-statements/internal/engine"
	"github.com/Veraticus/spice-statements/internal/service"
)

// Config holds HTTP server settings.
type Config struct {
	Addr               string
	BodyLimit          string // echo size notation, e.g. "20M"
	RateLimitPerMinute int
	RateLimitBurst     int
	ShutdownTimeout    time.Duration
	TLS                *tls.Config // serve HTTPS when set
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		BodyLimit:          "20M",
		RateLimitPerMinute: 30,
		RateLimitBurst:     5,
		ShutdownTimeout:    10 * time.Second,
	}
}

// Server wires HTTP handlers to the upload pipeline and storage.
type Server struct {
	echo     *echo.Echo
	uploader *engine.Uploader
	storage  service.Storage
	limiter  *RateLimiter
	logger   *slog.Logger
	config   Config
}

// New creates a server and registers its routes.
func New(config Config, uploader *engine.Uploader, storage service.Storage, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.BodyLimit == "" {
		config.BodyLimit = defaults.BodyLimit
	}
	if config.RateLimitPerMinute <= 0 {
		config.RateLimitPerMinute = defaults.RateLimitPerMinute
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = defaults.RateLimitBurst
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	s := &Server{
		echo:     echo.New(),
		uploader: uploader,
		storage:  storage,
		limiter:  NewRateLimiter(config.RateLimitPerMinute, config.RateLimitBurst),
		logger:   logger,
		config:   config,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(s.logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(s.config.BodyLimit))

	e.GET("/health", s.handleHealth)

	api := e.Group("/api", requireUser(), rateLimit(s.limiter, s.logger))
	api.POST("/uploads", s.handleUpload)
	api.GET("/uploads/:id", s.handleGetUpload)
	api.GET("/uploads/:id/transactions", s.handleUploadTransactions)
	api.GET("/uploads/:id/recurring", s.handleRecurring)
	api.GET("/keywords", s.handleKeywords)
	api.POST("/transactions/apply-similar", s.handleApplySimilar)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", s.config.Addr, "tls", s.config.TLS != nil)
		if err := s.start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.limiter.Stop()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	defer s.limiter.Stop()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) start() error {
	if s.config.TLS == nil {
		return s.echo.Start(s.config.Addr)
	}
	srv := s.echo.TLSServer
	srv.Addr = s.config.Addr
	srv.TLSConfig = s.config.TLS
	return s.echo.StartServer(srv)
}

// Close stops background work without serving.
func (s *Server) Close() {
	s.limiter.Stop()
}
