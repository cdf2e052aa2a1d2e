package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/verdantmarket/catalog-maintenance/internal/catalog"
	"github.com/verdantmarket/catalog-maintenance/internal/promotion"
	"github.com/verdantmarket/catalog-maintenance/internal/tasks"
	"github.com/verdantmarket/catalog-maintenance/pkg/config"
	"github.com/verdantmarket/catalog-maintenance/pkg/db"
	"github.com/verdantmarket/catalog-maintenance/pkg/instance"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
	"github.com/verdantmarket/catalog-maintenance/pkg/metrics"
	"github.com/verdantmarket/catalog-maintenance/pkg/migrate"
	"github.com/verdantmarket/catalog-maintenance/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "task-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "task-worker"

	logg = logger.New(logger.Options{
		ServiceName: "task-worker",
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

	taskMetrics := metrics.NewTaskMetrics(prometheus.DefaultRegisterer)
	promotionRepo := promotion.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())

	relinkHandler, err := tasks.NewRelinkHandler(tasks.RelinkHandlerParams{
		Logger:    logg,
		DB:        dbClient,
		Rules:     promotionRepo,
		Listings:  catalogRepo,
		Enqueuer:  enqueuer,
		Metrics:   taskMetrics,
		BatchSize: cfg.Tasks.PromotionRuleBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create relink handler", err)
		os.Exit(1)
	}

	priceHandler, err := tasks.NewPriceHandler(tasks.PriceHandlerParams{
		Logger:    logg,
		DB:        dbClient,
		Catalog:   catalogRepo,
		Rules:     promotionRepo,
		Enqueuer:  enqueuer,
		Metrics:   taskMetrics,
		BatchSize: cfg.Tasks.ProductBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create price handler", err)
		os.Exit(1)
	}

	renameHandler, err := tasks.NewRenameHandler(tasks.RenameHandlerParams{
		Logger:  logg,
		DB:      dbClient,
		Catalog: catalogRepo,
		Metrics: taskMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rename handler", err)
		os.Exit(1)
	}

	preorderHandler, err := tasks.NewPreorderHandler(tasks.PreorderHandlerParams{
		Logger:  logg,
		DB:      dbClient,
		Catalog: catalogRepo,
		Metrics: taskMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create preorder handler", err)
		os.Exit(1)
	}

	searchHandler, err := tasks.NewSearchHandler(tasks.SearchHandlerParams{
		Logger:    logg,
		Catalog:   catalogRepo,
		Enqueuer:  enqueuer,
		Metrics:   taskMetrics,
		BatchSize: cfg.Tasks.ProductBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create search handler", err)
		os.Exit(1)
	}

	consumer, err := tasks.NewConsumer(
		pubsubClient.TasksSubscription(),
		[]tasks.Handler{relinkHandler, priceHandler, renameHandler, preorderHandler, searchHandler},
		logg,
		taskMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create task consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		PubSub:   pubsubClient,
		Consumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting task worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "task worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "task worker shutting down gracefully")
}
