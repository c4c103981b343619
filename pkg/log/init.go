package log

import (
	"context"
	"fmt"
	"os"

	"github.com/songzhibin97/academia/internal/config"
)

// InitializeLogging initializes the global logging system from the logging section of the configuration.
func InitializeLogging(cfg *config.LoggingConfig) error {
	factoryConfig := DefaultFactoryConfig()

	if cfg != nil {
		level, err := ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid logging configuration: %w", err)
		}
		factoryConfig.Level = level
		factoryConfig.Development = cfg.Development
		factoryConfig.EnableCaller = cfg.EnableCaller
		if cfg.Driver != "" {
			factoryConfig.DefaultDriver = cfg.Driver
		}
		if cfg.TimeFormat != "" {
			factoryConfig.TimeFormat = cfg.TimeFormat
		}
	}

	if err := InitGlobalFactory(factoryConfig); err != nil {
		return fmt.Errorf("failed to initialize global logger factory: %w", err)
	}

	Default().Info("Logging system initialized",
		String("driver", factoryConfig.DefaultDriver),
		String("level", factoryConfig.Level.String()),
		Bool("development", factoryConfig.Development),
		Bool("caller_enabled", factoryConfig.EnableCaller),
	)

	return nil
}

// MustInitializeLogging initializes logging and exits on error.
func MustInitializeLogging(cfg *config.LoggingConfig) {
	if err := InitializeLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
}

// Shutdown flushes the global logging system.
func Shutdown() error {
	factory := GetGlobalFactory()
	if factory == nil {
		return nil
	}
	return factory.Shutdown(context.Background())
}
