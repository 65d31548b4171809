package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Config holds the engine's retry policy.
type Config struct {
	// RetryLimit is how many times a failed run is retried before it is
	// marked failed. Zero means no retries.
	RetryLimit int
	// BackoffBase is the delay before the first retry; each further retry
	// doubles it.
	BackoffBase time.Duration
}

// Engine executes registered functions in response to cron ticks and sent
// events. Runs of the same or different functions execute independently and
// concurrently; cron triggers fire on schedule regardless of in-flight runs.
type Engine struct {
	cfg    Config
	logger *zap.Logger
	cron   *cron.Cron

	mu        sync.RWMutex
	functions []Function
	byEvent   map[string][]Function
	started   bool

	runCtx    context.Context
	cancelRun context.CancelFunc
	wg        sync.WaitGroup
}

// New creates an engine with the given retry policy.
func New(cfg Config, logger *zap.Logger) *Engine {
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		cron:    cron.New(),
		byEvent: make(map[string][]Function),
	}
}

// Register adds a function to the engine. Must be called before Start.
func (e *Engine) Register(fn Function) error {
	if err := fn.validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("cannot register %s: engine already started", fn.Name)
	}
	for _, existing := range e.functions {
		if existing.Name == fn.Name {
			return fmt.Errorf("function %s already registered", fn.Name)
		}
	}

	e.functions = append(e.functions, fn)
	if fn.Trigger.Event != "" {
		e.byEvent[fn.Trigger.Event] = append(e.byEvent[fn.Trigger.Event], fn)
	}
	return nil
}

// Start schedules cron triggers and begins accepting events. The context
// bounds all runs: cancelling it stops in-flight steps.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("engine already started")
	}

	e.runCtx, e.cancelRun = context.WithCancel(ctx)

	for _, fn := range e.functions {
		if fn.Trigger.Cron == "" {
			continue
		}
		fn := fn
		_, err := e.cron.AddFunc(fn.Trigger.Cron, func() {
			e.spawn(fn, Event{Name: "cron/" + fn.Name})
		})
		if err != nil {
			e.cancelRun()
			return fmt.Errorf("invalid cron expression for %s: %w", fn.Name, err)
		}
	}

	e.cron.Start()
	e.started = true
	e.logger.Info("workflow engine started",
		zap.Int("functions", len(e.functions)),
		zap.Int("retry_limit", e.cfg.RetryLimit))
	return nil
}

// Stop halts cron scheduling and waits for in-flight runs to finish, up to
// the context deadline.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = false
	e.mu.Unlock()

	<-e.cron.Stop().Done()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Abandon the stragglers.
		e.cancelRun()
		return ctx.Err()
	}

	e.cancelRun()
	e.logger.Info("workflow engine stopped")
	return nil
}

// Send dispatches an event to every function registered for its name. Each
// match starts an independent run. Delivery is at-least-once from the
// handler's point of view: retried runs re-see the same event.
func (e *Engine) Send(_ context.Context, name string, payload any) error {
	e.mu.RLock()
	matches := e.byEvent[name]
	e.mu.RUnlock()

	if len(matches) == 0 {
		e.logger.Warn("event has no registered handler", zap.String("event", name))
		return nil
	}

	event := Event{Name: name, Payload: payload}
	for _, fn := range matches {
		e.spawn(fn, event)
	}
	return nil
}

// Trigger starts a run of a named function directly, outside its trigger.
// Used by the CLI to force a cron function on demand.
func (e *Engine) Trigger(name string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, fn := range e.functions {
		if fn.Name == name {
			e.spawn(fn, Event{Name: "manual/" + name})
			return nil
		}
	}
	return fmt.Errorf("function %s not registered", name)
}

// spawn starts one run in its own goroutine.
func (e *Engine) spawn(fn Function, event Event) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.execute(fn, event)
	}()
}

// execute drives a run to completion: invoke the handler, retry with
// exponential backoff on failure, and report runs that exhaust the retry
// budget. Fatal errors skip the retry loop entirely.
func (e *Engine) execute(fn Function, event Event) {
	ctx := e.runContext()
	run := newRun(fn, event, e.logger)
	run.setContext(ctx)

	start := time.Now()
	var err error
	for attempt := 0; attempt <= e.cfg.RetryLimit; attempt++ {
		run.Attempt = attempt

		if attempt > 0 {
			backoff := e.cfg.BackoffBase << (attempt - 1)
			run.Logger().Warn("retrying run",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				run.Logger().Error("run abandoned", zap.Error(ctx.Err()))
				return
			}
		}

		err = fn.Handler(ctx, run)
		if err == nil {
			run.Logger().Info("run completed",
				zap.String("event", event.Name),
				zap.Duration("duration", time.Since(start)))
			return
		}
		if IsFatal(err) {
			break
		}
	}

	run.Logger().Error("run failed",
		zap.String("event", event.Name),
		zap.Int("attempts", run.Attempt+1),
		zap.Bool("fatal", IsFatal(err)),
		zap.Error(err))
}

func (e *Engine) runContext() context.Context {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.runCtx != nil {
		return e.runCtx
	}
	return context.Background()
}
