package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/lazymint/internal/application/orchestrator"
	"github.com/aescanero/lazymint/internal/application/workers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// defaultMaxUploadBytes bounds the multipart body when no limit is configured
const defaultMaxUploadBytes = 32 << 20

// Server represents the HTTP API server
type Server struct {
	router         *gin.Engine
	server         *http.Server
	orchestrator   *orchestrator.Manager
	health         *workers.HealthMonitor
	maxUploadBytes int64
	logger         *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	// Addr is the listen address, e.g. ":8080"
	Addr         string
	Orchestrator *orchestrator.Manager
	// Health reports worker pool health on /health; nil reports healthy
	Health *workers.HealthMonitor
	// MetricsHandler serves /metrics; defaults to promhttp.Handler()
	MetricsHandler http.Handler
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	router := gin.New()
	router.MaxMultipartMemory = maxUpload
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:         router,
		orchestrator:   cfg.Orchestrator,
		health:         cfg.Health,
		maxUploadBytes: maxUpload,
		logger:         logger,
	}

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	s.setupRoutes(metricsHandler)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(metricsHandler http.Handler) {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(metricsHandler))

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/sessions", s.handleListSessions)
		v1.POST("/sessions/:id/submissions", s.handleSubmit)
		v1.GET("/sessions/:id/status", s.handleGetStatus)
		v1.POST("/sessions/:id/cancel", s.handleCancel)
	}
}

// StreamHandler serves a session's status stream
type StreamHandler interface {
	HandleSessionStream(c *gin.Context)
}

// SetupWebSocket adds the WebSocket status stream to the server
func (s *Server) SetupWebSocket(handler StreamHandler) {
	s.router.GET("/api/v1/sessions/:id/ws", handler.HandleSessionStream)
}

// Handler returns the server's router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

// requestLogger is a middleware for request logging
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()))
	}
}
