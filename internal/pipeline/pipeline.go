// Package pipeline wires the matchmaker's workflow functions: candidate
// generation, evaluation fan-out, the review watchdog, and feedback
// ingestion.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyzss/matchmaker-ai/internal/db"
	"github.com/nyzss/matchmaker-ai/internal/llm"
	"github.com/nyzss/matchmaker-ai/internal/notify"
	"github.com/nyzss/matchmaker-ai/internal/workflow"
)

// Store is the persistence surface the pipeline depends on. *db.DB
// implements it.
type Store interface {
	ListJobs(ctx context.Context) ([]db.Job, error)
	CreateCandidate(ctx context.Context, input *db.CandidateCreateInput) (*db.Candidate, error)
	CreateApplication(ctx context.Context, input *db.ApplicationCreateInput) (*db.Application, error)
	ListStaleReviewing(ctx context.Context, cutoff time.Time) ([]db.Application, error)
	ExpireApplication(ctx context.Context, id uuid.UUID) (bool, error)
	ResolveApplication(ctx context.Context, id uuid.UUID, feedback string) (bool, error)
}

// Reasoner generates schema-validated structured output. *llm.Extractor
// implements it.
type Reasoner interface {
	Generate(ctx context.Context, schema llm.Schema, prompt string, out any) error
}

// Sender enqueues events for other workflow functions. *workflow.Engine
// implements it.
type Sender interface {
	Send(ctx context.Context, name string, payload any) error
}

// Config holds pipeline scheduling and fan-out settings.
type Config struct {
	CandidateCron string
	WatchdogCron  string
	ExpiryWindow  time.Duration
	FanoutLimit   int
}

// Pipeline holds the dependencies shared by all workflow functions.
type Pipeline struct {
	store    Store
	reasoner Reasoner
	notifier notify.Notifier
	sender   Sender
	cfg      Config
	logger   *zap.Logger
}

// New creates a pipeline. The sender is attached later by Register, once the
// engine exists.
func New(store Store, reasoner Reasoner, notifier notify.Notifier, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.FanoutLimit <= 0 {
		cfg.FanoutLimit = 1
	}
	return &Pipeline{
		store:    store,
		reasoner: reasoner,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register binds all workflow functions to the engine. The engine doubles as
// the event sender between candidate generation and evaluation fan-out.
func (p *Pipeline) Register(engine *workflow.Engine) error {
	p.sender = engine

	for _, fn := range []workflow.Function{
		p.candidateFunction(),
		p.evaluateFunction(),
		p.watchdogFunction(),
	} {
		if err := engine.Register(fn); err != nil {
			return err
		}
	}
	return nil
}
