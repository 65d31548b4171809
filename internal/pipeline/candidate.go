package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nyzss/matchmaker-ai/internal/db"
	"github.com/nyzss/matchmaker-ai/internal/llm"
	"github.com/nyzss/matchmaker-ai/internal/workflow"
)

// EventEvaluateCandidate carries a freshly persisted candidate to the
// evaluation fan-out.
const EventEvaluateCandidate = "pipeline/evaluate-candidate"

// FuncCreateCandidate is the candidate generation function name.
const FuncCreateCandidate = "create-candidate"

const candidatePrompt = `Create a realistic synthetic candidate profile for a customer support role at Doctolib.
Invent a plausible name and email, a short free-text summary of relevant work experience, and a comma-separated list of skills.`

// candidateFunction generates one synthetic candidate per cron tick,
// persists it, and emits an evaluation event.
func (p *Pipeline) candidateFunction() workflow.Function {
	return workflow.Function{
		Name:    FuncCreateCandidate,
		Trigger: workflow.OnCron(p.cfg.CandidateCron),
		Handler: p.handleCreateCandidate,
	}
}

func (p *Pipeline) handleCreateCandidate(ctx context.Context, run *workflow.Run) error {
	profile, err := workflow.StepValue(run, "generate-profile", func(ctx context.Context) (llm.CandidateProfile, error) {
		var out llm.CandidateProfile
		err := p.reasoner.Generate(ctx, llm.CandidateProfileSchema(), candidatePrompt, &out)
		return out, err
	})
	if err != nil {
		return err
	}

	candidate, err := workflow.StepValue(run, "persist-candidate", func(ctx context.Context) (*db.Candidate, error) {
		c, err := p.store.CreateCandidate(ctx, &db.CandidateCreateInput{
			Name:       profile.Name,
			Email:      profile.Email,
			Experience: profile.Experience,
			Skills:     profile.Skills,
		})
		if err != nil {
			return nil, err
		}
		if c == nil {
			// The gateway promised a row back; not getting one is a
			// storage invariant violation a retry would only repeat.
			return nil, workflow.Fatal(errors.New("candidate insert returned no row"))
		}
		return c, nil
	})
	if err != nil {
		return err
	}

	run.Logger().Info("candidate created",
		zap.String("candidate_id", candidate.ID.String()),
		zap.String("name", candidate.Name))

	return run.Step("emit-evaluate", func(ctx context.Context) error {
		return p.sender.Send(ctx, EventEvaluateCandidate, candidate)
	})
}
