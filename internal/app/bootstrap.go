// Package app is the composition root: it wires configuration, database,
// repositories, the reducer, use cases and HTTP handlers into a runnable
// Application.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"atmosphere.io/timeline/internal/api/handlers"
	"atmosphere.io/timeline/internal/api/middleware"
	"atmosphere.io/timeline/internal/config"
	"atmosphere.io/timeline/internal/infrastructure"
	"atmosphere.io/timeline/internal/pkg/logger"
	"atmosphere.io/timeline/internal/reducer"
	"atmosphere.io/timeline/internal/repository"
	"atmosphere.io/timeline/internal/usecase"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.DatabaseClients
}

// Bootstrap initializes all dependencies using manual constructor-based DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	resources := repository.NewResourceStore()
	specs := repository.NewSpecStore()
	projector := repository.NewRangeQueryProjector(db.EntClient)

	red := reducer.New(resources, specs)

	ingestUC := usecase.NewIngestUseCase(db.EntClient, resources, red)
	usageUC := usecase.NewUsageUseCase(projector)

	ingestHandler := handlers.NewIngestHandler(ingestUC)
	usageHandler := handlers.NewUsageHandler(usageUC)
	healthHandler := handlers.NewHealthHandler(db.Pool)

	jwtCfg := buildJWTConfig(cfg)

	router := newRouter(cfg, jwtCfg, ingestHandler, usageHandler, healthHandler)

	logger.Info("application bootstrap complete")

	return &Application{
		Config: cfg,
		Router: router,
		DB:     db,
	}, nil
}

// buildJWTConfig derives verification keys from configuration. The session
// secret is always accepted so a single-tenant deployment can run without
// configuring a separate identity provider key.
func buildJWTConfig(cfg *config.Config) middleware.JWTConfig {
	keys := make([][]byte, 0, len(cfg.Security.JWTVerificationKeys)+1)
	for _, k := range cfg.Security.JWTVerificationKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	keys = append(keys, []byte(cfg.Security.SessionSecret))

	return middleware.JWTConfig{
		VerificationKeys: keys,
		Issuer:           "timeline",
		Leeway:           30 * time.Second,
	}
}

// Shutdown gracefully releases application resources.
func (a *Application) Shutdown() {
	if a.DB != nil {
		a.DB.Close()
	}
}
