package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyzss/matchmaker-ai/internal/db"
)

var seedCommand = &cobra.Command{
	Use:   "seed",
	Short: "Create the sample job opening",
	Long:  "Runs migrations and inserts the sample Customer Support job at Doctolib so the pipeline has something to evaluate candidates against.",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCommand)
}

const seedJobDescription = `We are looking for a Customer Support Specialist to join our team.
You will help patients and practitioners get the most out of our platform:
answering questions, resolving booking issues, and turning feedback into
product improvements. Fluent French and English required; experience with
support tooling (Zendesk, Intercom) is a plus.`

func runSeed(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	jobs, err := database.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	for _, job := range jobs {
		if job.Title == "Customer Support Specialist" && job.Company == "Doctolib" {
			fmt.Println("Sample job already exists, nothing to do.")
			return nil
		}
	}

	job, err := database.CreateJob(ctx, "Customer Support Specialist", seedJobDescription, "Doctolib")
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	fmt.Printf("Created job %s: %s @ %s\n", job.ID, job.Title, job.Company)
	return nil
}
