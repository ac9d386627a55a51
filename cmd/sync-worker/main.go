package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mvidalgarcia/golfviajes-backend/internal/audit"
	proposalsconsumer "github.com/mvidalgarcia/golfviajes-backend/internal/consumers/proposals"
	"github.com/mvidalgarcia/golfviajes-backend/internal/mappings"
	"github.com/mvidalgarcia/golfviajes-backend/internal/preflight"
	syncsvc "github.com/mvidalgarcia/golfviajes-backend/internal/sync"
	"github.com/mvidalgarcia/golfviajes-backend/internal/versions"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/config"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/giav"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/metrics"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox/idempotency"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/pubsub"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/redis"
)

const (
	processedMarkerTTL = 24 * time.Hour
	requeueInterval    = 5 * time.Minute
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "sync-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	giavClient, err := giav.NewClient(context.Background(), cfg.Giav, logg)
	requireResource(ctx, logg, "giav client", err)

	auditService, err := audit.NewService(audit.ServiceParams{Repo: audit.NewRepository(dbClient.DB())})
	requireResource(ctx, logg, "audit service", err)

	resolver, err := mappings.NewResolver(mappings.ResolverParams{
		Repo: mappings.NewRepository(dbClient.DB()),
		Giav: cfg.Giav,
	})
	requireResource(ctx, logg, "mapping resolver", err)

	validator, err := preflight.NewValidator(preflight.ValidatorParams{
		Resolver: resolver,
		Giav:     cfg.Giav,
	})
	requireResource(ctx, logg, "preflight validator", err)

	versionLock, err := syncsvc.NewVersionLock(redisClient, cfg.Giav.SyncLockTTL)
	requireResource(ctx, logg, "version lock", err)

	worker, err := syncsvc.NewWorker(syncsvc.WorkerParams{
		DB:        dbClient,
		Versions:  versions.NewRepository(dbClient.DB()),
		SyncLog:   syncsvc.NewLogRepository(dbClient.DB()),
		Preflight: validator,
		Giav:      giavClient,
		GiavCfg:   cfg.Giav,
		Lock:      versionLock,
		Audit:     auditService,
		Metrics:   metrics.NewSyncMetrics(prometheus.DefaultRegisterer),
		Logger:    logg,
	})
	requireResource(ctx, logg, "sync worker", err)

	idempotencyManager, err := idempotency.NewManager(redisClient, processedMarkerTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	consumer, err := proposalsconsumer.NewConsumer(worker, pubsubClient.ProposalsSubscription(), idempotencyManager, logg)
	requireResource(ctx, logg, "proposals consumer", err)

	requeuer, err := syncsvc.NewRequeuer(syncsvc.RequeuerParams{
		DB:       dbClient,
		Versions: versions.NewRepository(dbClient.DB()),
		Outbox:   outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Logger:   logg,
	})
	requireResource(ctx, logg, "sync requeuer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "sync worker ready")

	go runRequeueLoop(runCtx, logg, requeuer)

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func runRequeueLoop(ctx context.Context, logg *logger.Logger, requeuer *syncsvc.Requeuer) {
	ticker := time.NewTicker(requeueInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := requeuer.Sweep(ctx); err != nil {
				logg.Error(ctx, "stuck sync sweep failed", err)
			}
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
