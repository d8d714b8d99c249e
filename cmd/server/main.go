package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-app/internal/api/handlers"
	"todo-app/internal/app"
	"todo-app/internal/config"
	"todo-app/internal/logger"
	"todo-app/internal/repository/sqlstore"
	"todo-app/internal/service/llm"

	"github.com/sirupsen/logrus"
)

func main() {
	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize database
	logger.Log.WithField("driver", appConfig.Database.Driver).Info("Initializing database")
	store, err := sqlstore.NewFromConfig(appConfig.Database)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	provider, err := llm.NewLLMProvider(&appConfig.LLM, appConfig.Models)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to create LLM provider")
	}

	cfg := app.NewConfig(store, appConfig)
	router := handlers.NewHandlers(cfg, provider).Router()

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Chat turns wait on the model, so writes get the LLM budget plus slack.
		WriteTimeout: appConfig.LLM.RequestTimeout*time.Duration(appConfig.LLM.MaxToolRounds) + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(logrus.Fields{
			"port":     appConfig.Server.Port,
			"prefix":   appConfig.Server.APIPrefix,
			"provider": appConfig.LLM.Provider,
			"model":    appConfig.Models.GetDefaultModel(),
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("Server failed to start")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logger.Log.WithField("signal", sig.String()).Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
}
