package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/verdantmarket/catalog-maintenance/internal/cron"
	"github.com/verdantmarket/catalog-maintenance/internal/tasks"
	"github.com/verdantmarket/catalog-maintenance/pkg/config"
	"github.com/verdantmarket/catalog-maintenance/pkg/instance"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
	"github.com/verdantmarket/catalog-maintenance/pkg/metrics"
	"github.com/verdantmarket/catalog-maintenance/pkg/pubsub"
	"github.com/verdantmarket/catalog-maintenance/pkg/redis"
)

const lockKeyFormat = "vm:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	enqueuer, err := tasks.NewPubSubEnqueuer(pubsubClient.TasksPublisher(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create task enqueuer", err)
		os.Exit(1)
	}

	kickoffJob, err := cron.NewMaintenanceKickoffJob(cron.MaintenanceKickoffJobParams{
		Logger:   logg,
		Enqueuer: enqueuer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance kickoff job", err)
		os.Exit(1)
	}
	preorderJob, err := cron.NewPreorderKickoffJob(cron.PreorderKickoffJobParams{
		Logger:   logg,
		Enqueuer: enqueuer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create preorder kickoff job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(kickoffJob, preorderJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
