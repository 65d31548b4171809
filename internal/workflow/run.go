package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandlerFunc is the body of a workflow function. It is re-entered from the
// top on every retry; steps that completed on an earlier attempt are served
// from the run's memo instead of executing again.
type HandlerFunc func(ctx context.Context, run *Run) error

// Run is one execution instance of a registered function. A Run lives across
// retries of the same triggering, carrying the step memo between attempts.
type Run struct {
	ID       uuid.UUID
	Function string
	Attempt  int

	event  Event
	logger *zap.Logger

	mu    sync.Mutex
	ctx   context.Context
	steps map[string]any
}

func newRun(fn Function, event Event, logger *zap.Logger) *Run {
	id := uuid.New()
	return &Run{
		ID:       id,
		Function: fn.Name,
		event:    event,
		logger: logger.With(
			zap.String("function", fn.Name),
			zap.String("run_id", id.String()),
		),
		steps: make(map[string]any),
	}
}

// Event returns the event that triggered this run.
func (r *Run) Event() Event { return r.event }

// Logger returns a logger scoped to this run.
func (r *Run) Logger() *zap.Logger { return r.logger }

func (r *Run) memoized(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.steps[name]
	return v, ok
}

func (r *Run) memoize(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[name] = value
}

// Step executes a named durable step. The step runs at most once per run:
// once it completes without error its side effects are never repeated, even
// if a later step fails and the run is retried.
func (r *Run) Step(name string, fn func(ctx context.Context) error) error {
	_, err := StepValue(r, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Sleep suspends the run for the given duration. Only the calling run is
// suspended. Like any step, a completed sleep is not repeated on retry.
func (r *Run) Sleep(ctx context.Context, name string, d time.Duration) error {
	return r.Step(name, func(ctx context.Context) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// StepValue executes a named durable step that produces a value. The value is
// memoized with the completion, so retried runs observe the original result.
func StepValue[T any](r *Run, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := r.memoized(name); ok {
		typed, ok := v.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("step %s: memoized value has unexpected type %T", name, v)
		}
		return typed, nil
	}

	ctx := r.stepContext()
	value, err := fn(ctx)
	if err != nil {
		return value, fmt.Errorf("step %s: %w", name, err)
	}

	r.memoize(name, value)
	return value, nil
}

// setContext records the context for the current attempt. Called by the
// engine before each handler invocation.
func (r *Run) setContext(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
}

// stepContext is the execution context steps run under. Stored by the engine
// when the run starts.
func (r *Run) stepContext() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// fatalError marks an error as non-retryable: an invariant violation that a
// retry would only repeat.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps an error so the engine fails the run immediately instead of
// retrying.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether an error was marked with Fatal.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
