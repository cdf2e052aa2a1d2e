package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/verdantmarket/catalog-maintenance/api/controllers"
	"github.com/verdantmarket/catalog-maintenance/api/routes"
	"github.com/verdantmarket/catalog-maintenance/internal/catalog"
	"github.com/verdantmarket/catalog-maintenance/internal/tasks"
	"github.com/verdantmarket/catalog-maintenance/pkg/config"
	"github.com/verdantmarket/catalog-maintenance/pkg/db"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
	"github.com/verdantmarket/catalog-maintenance/pkg/migrate"
	"github.com/verdantmarket/catalog-maintenance/pkg/pubsub"
	"github.com/verdantmarket/catalog-maintenance/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "ops-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "ops-api"

	logg = logger.New(logger.Options{
		ServiceName: "ops-api",
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
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	enqueuer, err := tasks.NewPubSubEnqueuer(pubsubClient.TasksPublisher(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create task enqueuer", err)
		os.Exit(1)
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
	logg.Info(ctx, "starting ops api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Catalog:  catalog.NewRepository(dbClient.DB()),
			Enqueuer: enqueuer,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
				"pubsub":   pubsubClient,
			},
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "ops api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
