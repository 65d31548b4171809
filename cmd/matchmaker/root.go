package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nyzss/matchmaker-ai/internal/config"
)

// newLogger builds the process logger. Debug mode switches to the
// development encoder with debug-level output.
func newLogger() (*zap.Logger, error) {
	if debugMode {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadConfig loads configuration from the --config file (if any) merged with
// environment variables.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
