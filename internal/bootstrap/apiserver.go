package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/sj-huang/rdkit-m/internal/config"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/auth/jwt"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	httpserver "github.com/sj-huang/rdkit-m/internal/interfaces/http"
	"github.com/sj-huang/rdkit-m/internal/interfaces/http/handlers"
	"github.com/sj-huang/rdkit-m/internal/interfaces/http/middleware"
)

// NewRouter builds the HTTP route tree over the opened infrastructure.
func (i *Infrastructure) NewRouter(version string) (*gin.Engine, error) {
	cfg := i.cfg
	svc := i.Service()

	rc := httpserver.RouterConfig{
		Mode:             cfg.Server.Mode,
		WeightsHandler:   handlers.NewWeightsHandler(svc),
		MapHandler:       handlers.NewMapHandler(svc),
		JobHandler:       handlers.NewJobHandler(svc),
		ReferenceHandler: handlers.NewReferenceHandler(svc),
		HealthHandler: handlers.NewHealthHandler(version, lo.Map(i.HealthCheckers(), func(c HealthChecker, _ int) handlers.HealthChecker {
			return c
		})...),
		Logging:          middleware.DefaultLoggingConfig(),
		MaxBodySize:      cfg.Server.MaxBodySize,
		Logger:           i.logger,
		Metrics:          i.Metrics,
		MetricsCollector: i.Collector,
	}

	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSOrigins
		rc.CORS = &cors
	}
	if cfg.Server.RateLimitRPS > 0 {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimitRPS,
			BurstSize:         cfg.Server.RateLimitBurst,
			SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
		})
		if err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		rc.RateLimiter = limiter
	}
	if cfg.Auth.Enabled {
		verifier, err := jwt.NewVerifier(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		rc.AuthMiddleware = middleware.NewAuthMiddleware(verifier, middleware.AuthConfig{}, i.logger)
	}
	return httpserver.NewRouter(rc), nil
}

// RunAPIServer serves the HTTP API until ctx is cancelled. When configPath
// is set, edits to the file are reported; they apply on restart.
func RunAPIServer(ctx context.Context, cfg *config.Config, configPath, version string, logger logging.Logger) error {
	infra, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	router, err := infra.NewRouter(version)
	if err != nil {
		return err
	}
	srv := httpserver.NewServer(cfg.Server, router, logger)

	if configPath != "" {
		err := config.Watch(configPath, func(*config.Config) {
			logger.Warn("Configuration file changed; restart to apply", logging.String("path", configPath))
		}, func(err error) {
			logger.Error("Configuration file change is invalid", logging.String("path", configPath), logging.Err(err))
		})
		if err != nil {
			logger.Warn("Configuration watch disabled", logging.Err(err))
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return srv.Stop(context.Background())
}

//Personal.AI order the ending
