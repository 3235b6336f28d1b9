// Package api exposes the screening service over HTTP: evaluation and
// intake endpoints, the static catalog, stored evaluation history, feedback
// collection, and a websocket surface for interactive intake clients.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/prushi369-byte/uspstf-screening/internal/cache"
	"github.com/prushi369-byte/uspstf-screening/internal/domain"
	"github.com/prushi369-byte/uspstf-screening/internal/feedback"
	"github.com/prushi369-byte/uspstf-screening/internal/middleware"
	"github.com/prushi369-byte/uspstf-screening/internal/service"
)

const serverVersion = "1.0.0"

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	screening     *service.ScreeningService
	feedback      feedback.Store
	cacheStats    func() cache.Stats
	rateLimiter   *middleware.ClientRateLimiter
	router        *gin.Engine
	server        *http.Server
}

// Option configures optional collaborators on a Server.
type Option func(*Server)

// WithFeedbackStore enables the feedback endpoints.
func WithFeedbackStore(store feedback.Store) Option {
	return func(s *Server) {
		s.feedback = store
	}
}

// WithCacheStats exposes result-cache statistics on the health endpoint.
func WithCacheStats(stats func() cache.Stats) Option {
	return func(s *Server) {
		s.cacheStats = stats
	}
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, logger *logrus.Logger, screening *service.ScreeningService, opts ...Option) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		configManager: configManager,
		logger:        logger,
		screening:     screening,
	}

	for _, opt := range opts {
		opt(server)
	}

	server.rateLimiter = middleware.NewClientRateLimiter(logger, cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	router.Use(server.rateLimiter.Middleware())

	server.router = router

	// Setup routes
	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"addr": addr,
			"tls":  cfg.TLSEnabled,
		}).Info("HTTP server listening")

		var err error
		if cfg.TLSEnabled {
			err = s.server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("starting server: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// Router returns the underlying gin router. Exposed for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/screenings/evaluate", s.handleEvaluate)
		v1.POST("/screenings/intake", s.handleIntake)
		v1.GET("/screenings/catalog", s.handleCatalog)
		v1.GET("/screenings/live", s.handleLive)
		v1.GET("/screenings", s.handleListEvaluations)
		v1.GET("/screenings/:id", s.handleGetEvaluation)
		v1.DELETE("/screenings/:id", s.handleDeleteEvaluation)
		v1.POST("/feedback", s.handleSubmitFeedback)
		v1.GET("/feedback", s.handleListFeedback)
	}
}
