package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nyzss/matchmaker-ai/internal/db"
	"github.com/nyzss/matchmaker-ai/internal/workflow"
)

// FuncCheckApplications is the review watchdog function name.
const FuncCheckApplications = "check-applications"

// watchdogFunction expires applications that sat in review past the expiry
// window. The guarded update means a concurrent human resolution simply wins:
// rows that lost the race are skipped, not errors.
func (p *Pipeline) watchdogFunction() workflow.Function {
	return workflow.Function{
		Name:    FuncCheckApplications,
		Trigger: workflow.OnCron(p.cfg.WatchdogCron),
		Handler: p.handleCheckApplications,
	}
}

func (p *Pipeline) handleCheckApplications(ctx context.Context, run *workflow.Run) error {
	stale, err := workflow.StepValue(run, "list-stale", func(ctx context.Context) ([]db.Application, error) {
		return p.store.ListStaleReviewing(ctx, time.Now().Add(-p.cfg.ExpiryWindow))
	})
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	expired := 0
	for _, app := range stale {
		updated, err := p.store.ExpireApplication(ctx, app.ID)
		if err != nil {
			return fmt.Errorf("expire application %s: %w", app.ID, err)
		}
		if !updated {
			// Lost the race to a feedback resolution. Nothing to do.
			continue
		}
		expired++

		text := fmt.Sprintf("Application `%s` expired after %s without review.", app.ID, p.cfg.ExpiryWindow)
		stepName := "notify-expired-" + app.ID.String()
		if err := run.Step(stepName, func(ctx context.Context) error {
			return p.notifier.Post(ctx, text)
		}); err != nil {
			run.Logger().Warn("expiry notification failed",
				zap.String("application_id", app.ID.String()),
				zap.Error(err))
		}
	}

	run.Logger().Info("stale applications checked",
		zap.Int("stale", len(stale)),
		zap.Int("expired", expired))
	return nil
}
