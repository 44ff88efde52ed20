package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"webhook-bridge/internal/infrastructure/config"
	"webhook-bridge/internal/infrastructure/logger"
	_ "webhook-bridge/internal/infrastructure/metrics" // Register Prometheus metrics
	"webhook-bridge/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HTTPServer
}

func init() {
	// Initialize logger with default settings
	logger.Init("info", "json")
}

func (app *Application) Start(ctx context.Context) error {
	return app.httpServer.Run()
}

func main() {
	ctx := context.Background()

	// Load local overrides if present
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Re-initialize logger with config settings
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("log_level", cfg.LogLevel).
		Bool("directory", cfg.HasIntercom()).
		Bool("marketing", cfg.HasConvertKit()).
		Bool("course_access", cfg.HasThriveCart()).
		Bool("crm", cfg.HasHubSpot()).
		Bool("alerting", cfg.HasSlack()).
		Msg("Starting webhook bridge service")

	// Create application with dependency injection
	application, err := CreateApplication(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	// Start application
	if err := application.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
