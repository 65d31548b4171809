// Package workflow provides a small event-driven workflow engine: named
// functions registered against cron or event triggers, runs with memoized
// durable steps, bounded retry with backoff, and a send primitive for
// inter-function signaling.
package workflow

import "fmt"

// Trigger describes what starts a function: an event name or a cron
// expression. Exactly one must be set.
type Trigger struct {
	Event string
	Cron  string
}

// OnEvent returns a trigger that fires when an event with the given name is
// sent.
func OnEvent(name string) Trigger {
	return Trigger{Event: name}
}

// OnCron returns a trigger that fires on a 5-field cron schedule.
func OnCron(expr string) Trigger {
	return Trigger{Cron: expr}
}

func (t Trigger) validate() error {
	if t.Event == "" && t.Cron == "" {
		return fmt.Errorf("trigger requires an event name or a cron expression")
	}
	if t.Event != "" && t.Cron != "" {
		return fmt.Errorf("trigger cannot have both an event name and a cron expression")
	}
	return nil
}

// Function is a named handler bound to a trigger.
type Function struct {
	Name    string
	Trigger Trigger
	Handler HandlerFunc
}

func (f Function) validate() error {
	if f.Name == "" {
		return fmt.Errorf("function name is required")
	}
	if f.Handler == nil {
		return fmt.Errorf("function %s requires a handler", f.Name)
	}
	if err := f.Trigger.validate(); err != nil {
		return fmt.Errorf("function %s: %w", f.Name, err)
	}
	return nil
}

// Event is the unit of inter-function signaling.
type Event struct {
	Name    string
	Payload any
}
