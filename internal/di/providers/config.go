// Package providers contains dependency injection providers for the club trophies server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/config"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
)

// ProvideConfig provides the application configuration from the process flags and environment.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig(os.Args[1:])
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Club Trophies Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"store_path", cfg.Store.Path,
		"store_in_memory", cfg.Store.InMemory,
	)

	return log, nil
}
