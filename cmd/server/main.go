package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storytime/internal/api"
	"storytime/internal/app"
	"storytime/internal/config"
	"storytime/internal/logger"
	"storytime/internal/repository/postgres"
	"storytime/internal/service/account"
	"storytime/internal/storage"

	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}
	// .env may have set the log options after the logger initialised
	logger.Configure(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	database, err := postgres.NewPostgresDB(ctx, appConfig.Database)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close()

	store, err := storage.New(ctx, appConfig.Storage)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize object storage")
	}

	cfg := app.NewConfig(database, appConfig).WithStore(store).WithOpenAI()

	if err := account.NewAccountService(cfg).SeedDemoUser(ctx, appConfig.Seed); err != nil {
		logger.Log.WithError(err).Fatal("Failed to seed demo user")
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           api.NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.WithFields(logrus.Fields{
			"port":            appConfig.Server.Port,
			"storage":         appConfig.Storage.Driver,
			"text_model":      appConfig.AI.TextModel,
			"story_segments":  appConfig.Adventure.StorySegments,
			"allowed_origins": appConfig.Server.AllowedOrigins,
		}).Info("Server starting")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
}
