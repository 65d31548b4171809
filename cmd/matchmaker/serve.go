package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nyzss/matchmaker-ai/internal/db"
	"github.com/nyzss/matchmaker-ai/internal/llm"
	"github.com/nyzss/matchmaker-ai/internal/notify"
	"github.com/nyzss/matchmaker-ai/internal/pipeline"
	"github.com/nyzss/matchmaker-ai/internal/server"
	"github.com/nyzss/matchmaker-ai/internal/workflow"
)

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Run the workflow engine and HTTP API",
	Long: `Starts the full service: the cron-driven candidate generator, the
evaluation fan-out, the review watchdog, and the HTTP API that receives Slack
interaction callbacks and serves job and application listings.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCommand)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, llm.DefaultModel)
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}
	defer func() { _ = client.Close() }()

	notifier, err := buildNotifier(cfg.SlackBotToken, cfg.SlackChannel, logger)
	if err != nil {
		return err
	}

	engine := workflow.New(workflow.Config{
		RetryLimit:  cfg.Retries(),
		BackoffBase: cfg.BackoffBase.Std(),
	}, logger)

	pipe := pipeline.New(database, llm.NewExtractor(client), notifier, pipeline.Config{
		CandidateCron: cfg.CandidateCron,
		WatchdogCron:  cfg.WatchdogCron,
		ExpiryWindow:  cfg.ExpiryWindow.Std(),
		FanoutLimit:   cfg.FanoutLimit,
	}, logger)
	if err := pipe.Register(engine); err != nil {
		return fmt.Errorf("failed to register workflow functions: %w", err)
	}
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workflow engine: %w", err)
	}

	srv, err := server.New(cfg, database, database, pipe, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := engine.Stop(shutdownCtx); err != nil {
		logger.Error("engine shutdown failed", zap.Error(err))
	}
	return nil
}

// buildNotifier picks Slack when a bot token is configured, the log-only
// notifier otherwise.
func buildNotifier(token, channel string, logger *zap.Logger) (notify.Notifier, error) {
	if token == "" {
		logger.Warn("no slack bot token configured, notifications go to the log")
		return notify.NewLogNotifier(logger), nil
	}
	notifier, err := notify.NewSlackNotifier(token, channel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create slack notifier: %w", err)
	}
	return notifier, nil
}
