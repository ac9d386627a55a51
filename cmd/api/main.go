package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/mvidalgarcia/golfviajes-backend/api/controllers"
	"github.com/mvidalgarcia/golfviajes-backend/api/routes"
	"github.com/mvidalgarcia/golfviajes-backend/internal/audit"
	"github.com/mvidalgarcia/golfviajes-backend/internal/mappings"
	"github.com/mvidalgarcia/golfviajes-backend/internal/proposals"
	syncsvc "github.com/mvidalgarcia/golfviajes-backend/internal/sync"
	"github.com/mvidalgarcia/golfviajes-backend/internal/versions"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/config"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/migrate"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/pubsub"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	auditService, err := audit.NewService(audit.ServiceParams{Repo: audit.NewRepository(dbClient.DB())})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	proposalsService, err := proposals.NewService(proposals.ServiceParams{
		DB:     dbClient,
		Repo:   proposals.NewRepository(dbClient.DB()),
		Audit:  auditService,
		Outbox: outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create proposals service", err)
		os.Exit(1)
	}

	versionsService, err := versions.NewService(versions.ServiceParams{
		DB:    dbClient,
		Repo:  versions.NewRepository(dbClient.DB()),
		Audit: auditService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create versions service", err)
		os.Exit(1)
	}

	mappingsRepo := mappings.NewRepository(dbClient.DB())
	mappingsService, err := mappings.NewService(mappings.ServiceParams{
		Repo:  mappingsRepo,
		Audit: auditService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create mappings service", err)
		os.Exit(1)
	}

	mappingResolver, err := mappings.NewResolver(mappings.ResolverParams{
		Repo: mappingsRepo,
		Giav: cfg.Giav,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create mapping resolver", err)
		os.Exit(1)
	}

	syncLogRepo := syncsvc.NewLogRepository(dbClient.DB())

	healthDeps := map[string]controllers.Pinger{
		"db":     dbClient,
		"redis":  redisClient,
		"pubsub": pubsubClient,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			healthDeps,
			proposalsService,
			versionsService,
			mappingsService,
			mappingResolver,
			syncLogRepo,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
