// Package api exposes the triage engine over HTTP for the dialogue
// framework and other clinic collaborators. The engine itself stays a pure
// computation; caching, persistence, escalation and rate limiting all live
// on this side of the boundary.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eye-triage-server/internal/config"
	"github.com/eye-triage-server/internal/domain"
	"github.com/eye-triage-server/internal/middleware"
	"github.com/eye-triage-server/internal/service"
	"github.com/eye-triage-server/internal/storage"
)

// Notifier escalates reports that require human review.
type Notifier interface {
	Notify(ctx context.Context, report *domain.TriageReport) error
}

// Server is the HTTP embedding surface for the triage engine.
type Server struct {
	cfg      *config.Config
	logger   *logrus.Logger
	engine   *service.TriageEngine
	store    storage.Store // nil when the audit store is disabled
	notifier Notifier      // nil when handoff escalation is disabled
	cache    *responseCache
	router   *gin.Engine
	server   *http.Server
}

// NewServer wires the engine and its collaborators into a gin router.
func NewServer(cfg *config.Config, logger *logrus.Logger, engine *service.TriageEngine, store storage.Store, notifier Notifier) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.NewRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst).Middleware())

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		engine:   engine,
		store:    store,
		notifier: notifier,
		router:   router,
	}

	if cfg.Cache.Enabled {
		s.cache = newResponseCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	s.setupRoutes()
	return s
}

// Start runs the HTTP server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/triage", s.handleTriage)
		v1.GET("/reports/:id", s.handleGetReport)
		v1.GET("/reports", s.handleListReports)
	}
}
