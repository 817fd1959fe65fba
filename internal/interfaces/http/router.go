package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/prometheus"
	"github.com/sj-huang/rdkit-m/internal/interfaces/http/handlers"
	"github.com/sj-huang/rdkit-m/internal/interfaces/http/middleware"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

const apiPrefix = "/api/v1"

// RouterConfig aggregates the handlers and middleware of the route tree.
// Nil handlers and middleware are skipped.
type RouterConfig struct {
	// Mode is the gin mode: "debug", "release" or "test".
	Mode string

	WeightsHandler   *handlers.WeightsHandler
	MapHandler       *handlers.MapHandler
	JobHandler       *handlers.JobHandler
	ReferenceHandler *handlers.ReferenceHandler
	HealthHandler    *handlers.HealthHandler

	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
	CORS           *middleware.CORSConfig
	Logging        middleware.LoggingConfig
	MaxBodySize    int64

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the route tree. Probes and /metrics stay outside the
// authenticated /api/v1 group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()

	// ── Global middleware ───────────────────────────────────────────────────
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(logger, cfg.Logging))
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Handler())
	}

	// ── Public endpoints ────────────────────────────────────────────────────
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	// ── API v1 ──────────────────────────────────────────────────────────────
	api := r.Group(apiPrefix)
	api.Use(middleware.BodyLimit(cfg.MaxBodySize))
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.Handler())
	}
	if cfg.WeightsHandler != nil {
		cfg.WeightsHandler.RegisterRoutes(api)
	}
	if cfg.MapHandler != nil {
		cfg.MapHandler.RegisterRoutes(api)
	}
	if cfg.JobHandler != nil {
		cfg.JobHandler.RegisterRoutes(api)
	}
	if cfg.ReferenceHandler != nil {
		cfg.ReferenceHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		middleware.AbortWithError(c, errors.ErrCodeNotFound, "route not found", c.Request.URL.Path)
	})
	return r
}

//Personal.AI order the ending
