package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyzss/matchmaker-ai/internal/db"
	"github.com/nyzss/matchmaker-ai/internal/llm"
	"github.com/nyzss/matchmaker-ai/internal/pipeline"
	"github.com/nyzss/matchmaker-ai/internal/workflow"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Run one candidate generation end-to-end",
	Long: `Generates a single candidate profile, evaluates it against all open
jobs, and persists the resulting applications. Useful for trying the pipeline
without waiting for the cron schedule.`,
	RunE: runGenerate,
}

var generateTimeout time.Duration

func init() {
	generateCommand.Flags().DurationVar(&generateTimeout, "timeout", 10*time.Minute, "How long to wait for the generation run to finish")
	rootCmd.AddCommand(generateCommand)
}

func runGenerate(_ *cobra.Command, _ []string) error {
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
		// Schedules are irrelevant for a one-shot run but must still parse.
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

	if err := engine.Trigger(pipeline.FuncCreateCandidate); err != nil {
		return fmt.Errorf("failed to trigger candidate generation: %w", err)
	}

	// Stop waits for the generation run and its downstream evaluation.
	stopCtx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()
	if err := engine.Stop(stopCtx); err != nil {
		return fmt.Errorf("generation run did not finish: %w", err)
	}
	return nil
}
