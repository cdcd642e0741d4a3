// Package providers contains dependency injection providers for the reading lists server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/listenupapp/readinglists-server/internal/config"
	"github.com/listenupapp/readinglists-server/internal/logger"
)

// ProvideConfig provides the application configuration from the process arguments.
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

	log.Info("Starting Reading Lists Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"store_path", cfg.Store.Path,
		"in_memory", cfg.Store.InMemory,
		"public_url", cfg.Server.PublicURL,
	)

	return log, nil
}
