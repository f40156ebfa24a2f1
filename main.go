package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/internal/app"
	"catalog/internal/config"
	"catalog/internal/logger"
	"catalog/pkg/rabbitmq"

	"github.com/spf13/viper"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to read .env")
	}

	cfg, err := config.Load(viper.New())
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.Init("product-catalog", cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("environment", cfg.Environment).
		Str("storage", cfg.DatabaseDriver).
		Msg("Starting product catalog")

	application, err := app.New(cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if events := application.Events(); events != nil {
		if err := events.ConsumeProductEvents(rabbitmq.LogProductEvent); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to start RabbitMQ consumer")
		}
	}

	go func() {
		logger.Logger.Info().Str("addr", cfg.AppPort).Msg("HTTP server listening")
		if err := application.Fiber.Listen(cfg.AppPort); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger.Info().Msg("Shutting down server...")

	if err := application.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Logger.Error().Err(err).Msg("Error during Fiber shutdown")
	}
	if err := application.Close(); err != nil {
		logger.Logger.Error().Err(err).Msg("Error releasing resources")
	}

	logger.Logger.Info().Msg("Server gracefully stopped")
}
