package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nyzss/matchmaker-ai/internal/db"
	"github.com/nyzss/matchmaker-ai/internal/llm"
	"github.com/nyzss/matchmaker-ai/internal/workflow"
)

// FuncEvaluateCandidate is the evaluation fan-out function name.
const FuncEvaluateCandidate = "evaluate-candidate"

// jobEvaluation is one successful per-job evaluation within a fan-out.
type jobEvaluation struct {
	JobID    uuid.UUID
	JobTitle string
	Company  string
	Score    int
	Analysis string
}

// fanoutResult aggregates the independent per-job outcomes of one fan-out.
type fanoutResult struct {
	Evaluations []jobEvaluation
	Failed      int
}

// evaluateFunction scores one candidate against every open job, persists one
// application per successful evaluation, and requests reviewer feedback for
// each.
func (p *Pipeline) evaluateFunction() workflow.Function {
	return workflow.Function{
		Name:    FuncEvaluateCandidate,
		Trigger: workflow.OnEvent(EventEvaluateCandidate),
		Handler: p.handleEvaluateCandidate,
	}
}

func (p *Pipeline) handleEvaluateCandidate(ctx context.Context, run *workflow.Run) error {
	candidate, ok := run.Event().Payload.(*db.Candidate)
	if !ok || candidate == nil {
		return workflow.Fatal(fmt.Errorf("event %s carried no candidate", run.Event().Name))
	}

	jobs, err := workflow.StepValue(run, "load-jobs", func(ctx context.Context) ([]db.Job, error) {
		return p.store.ListJobs(ctx)
	})
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		run.Logger().Info("no open jobs, skipping evaluation",
			zap.String("candidate_id", candidate.ID.String()))
		return nil
	}

	fanout, err := workflow.StepValue(run, "evaluate-jobs", func(ctx context.Context) (fanoutResult, error) {
		return p.evaluateAgainstJobs(ctx, run.Logger(), candidate, jobs)
	})
	if err != nil {
		return err
	}

	applications, err := workflow.StepValue(run, "persist-applications", func(ctx context.Context) ([]db.Application, error) {
		var created []db.Application
		for _, eval := range fanout.Evaluations {
			app, err := p.store.CreateApplication(ctx, &db.ApplicationCreateInput{
				JobID:       eval.JobID,
				CandidateID: candidate.ID,
				MatchScore:  eval.Score,
				Analysis:    eval.Analysis,
			})
			if err != nil {
				return nil, err
			}
			if app == nil {
				// Already evaluated for this pair, skip.
				run.Logger().Debug("application already exists",
					zap.String("job_id", eval.JobID.String()),
					zap.String("candidate_id", candidate.ID.String()))
				continue
			}
			created = append(created, *app)
		}
		return created, nil
	})
	if err != nil {
		return err
	}

	// A failed notification leaves the application persisted and reachable
	// by the watchdog, so it is logged rather than retried forever.
	for i := range applications {
		app := applications[i]
		text := fmt.Sprintf("*%s* scored *%d/100* for this application.\n%s",
			candidate.Name, app.MatchScore, app.Analysis)
		stepName := "notify-" + app.ID.String()
		if err := run.Step(stepName, func(ctx context.Context) error {
			return p.notifier.PostInteractive(ctx, text, app.ID.String(), "Feedback")
		}); err != nil {
			run.Logger().Warn("application notification failed",
				zap.String("application_id", app.ID.String()),
				zap.Error(err))
		}
	}

	run.Logger().Info("candidate evaluated",
		zap.String("candidate_id", candidate.ID.String()),
		zap.Int("jobs", len(jobs)),
		zap.Int("applications", len(applications)),
		zap.Int("failed_evaluations", fanout.Failed))
	return nil
}

// evaluateAgainstJobs runs the per-job reasoning calls concurrently. Each
// call is independent: a failure drops that job's evaluation and is counted,
// without aborting the others. The fan-out only errors when every evaluation
// failed, which looks like an outage rather than noise.
func (p *Pipeline) evaluateAgainstJobs(ctx context.Context, logger *zap.Logger, candidate *db.Candidate, jobs []db.Job) (fanoutResult, error) {
	results := make([]*jobEvaluation, len(jobs))
	failures := make([]error, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.FanoutLimit)
	for i := range jobs {
		i, job := i, jobs[i]
		g.Go(func() error {
			var eval llm.Evaluation
			err := p.reasoner.Generate(ctx, llm.EvaluationSchema(), buildEvaluationPrompt(candidate, &job), &eval)
			if err != nil {
				failures[i] = err
				logger.Warn("job evaluation failed",
					zap.String("job_id", job.ID.String()),
					zap.String("job_title", job.Title),
					zap.Error(err))
				return nil
			}
			results[i] = &jobEvaluation{
				JobID:    job.ID,
				JobTitle: job.Title,
				Company:  job.Company,
				Score:    eval.MatchScore,
				Analysis: eval.Analysis,
			}
			return nil
		})
	}
	_ = g.Wait()

	out := fanoutResult{}
	for i := range jobs {
		if results[i] != nil {
			out.Evaluations = append(out.Evaluations, *results[i])
		} else if failures[i] != nil {
			out.Failed++
		}
	}
	if len(out.Evaluations) == 0 && out.Failed > 0 {
		return out, fmt.Errorf("all %d evaluations failed, last error: %w", out.Failed, lastError(failures))
	}
	return out, nil
}

func lastError(errs []error) error {
	for i := len(errs) - 1; i >= 0; i-- {
		if errs[i] != nil {
			return errs[i]
		}
	}
	return nil
}

// buildEvaluationPrompt embeds the job and candidate as JSON so the model
// sees exact field values.
func buildEvaluationPrompt(candidate *db.Candidate, job *db.Job) string {
	jobJSON, _ := json.MarshalIndent(map[string]string{
		"title":       job.Title,
		"company":     job.Company,
		"description": job.Description,
	}, "", "  ")
	candidateJSON, _ := json.MarshalIndent(map[string]string{
		"name":       candidate.Name,
		"email":      candidate.Email,
		"experience": candidate.Experience,
		"skills":     candidate.Skills,
	}, "", "  ")

	return fmt.Sprintf(`You are a recruiter evaluating a candidate for the following job:
%s

Candidate:
%s

Score how well the candidate matches the job from 0 to 100 and explain your reasoning.`,
		jobJSON, candidateJSON)
}
