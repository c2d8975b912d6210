// Package http provides the HTTP server, its middleware stack and the metrics server.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/seedvault/internal/auth/http"
	authService "github.com/allisson/seedvault/internal/auth/service"
	"github.com/allisson/seedvault/internal/config"
	"github.com/allisson/seedvault/internal/metrics"
	seedHTTP "github.com/allisson/seedvault/internal/seed/http"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	store  Pinger
	logger *slog.Logger

	// ctx bounds background work owned by the router, such as limiter cleanup.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new HTTP server. The store is pinged by the readiness endpoint.
func NewServer(
	store Pinger,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		store:  store,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// SetupRouter registers middleware and routes.
//
//	GET    /health                       liveness
//	GET    /ready                        readiness, pings the secret store
//	POST   /v1/enrollments/:principal    enroll
//	DELETE /v1/enrollments/:principal    reset
//	POST   /v1/verifications/:principal  verify (rate limited per principal)
//
// Routes under /v1 require the API key. A nil metricsProvider disables HTTP metrics.
func (s *Server) SetupRouter(
	cfg *config.Config,
	seedHandler *seedHTTP.SeedHandler,
	apiKeyService authService.APIKeyService,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	v1.Use(authHTTP.APIKeyAuthenticationMiddleware(cfg.APIKeyHash, apiKeyService, s.logger))

	enrollments := v1.Group("/enrollments")
	enrollments.POST("/:principal", seedHandler.EnrollHandler)
	enrollments.DELETE("/:principal", seedHandler.ResetHandler)

	verifyChain := []gin.HandlerFunc{}
	if cfg.RateLimitEnabled {
		verifyChain = append(verifyChain, authHTTP.PrincipalRateLimitMiddleware(
			s.ctx,
			cfg.RateLimitRequestsPerSec,
			cfg.RateLimitBurst,
			s.logger,
		))
	}
	verifyChain = append(verifyChain, seedHandler.VerifyHandler)
	v1.POST("/verifications/:principal", verifyChain...)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	storeStatus := "ok"
	if s.store == nil {
		storeStatus = "error"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.String("component", "secret_store"), slog.Any("error", err))
			storeStatus = "error"
		}
	}

	status, code := "ready", http.StatusOK
	if storeStatus != "ok" {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"components": gin.H{
			"secret_store": storeStatus,
		},
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured, call SetupRouter first")
	}
	s.server.Handler = s.router

	return listenAndServe(s.server, s.logger)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.cancel()
	return s.server.Shutdown(ctx)
}
