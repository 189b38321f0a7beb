// Package wizard is a generic multi-step form executor: ordered named steps,
// per-step activation predicates evaluated against the accumulated run state,
// per-step data validation, and an exactly-once finalize hook. The signup and
// activation flows are built on it.
package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dropDatabas3/onboard/internal/observability/logger"
)

var (
	// ErrUnknownStep is returned for a step name the flow does not define.
	ErrUnknownStep = errors.New("wizard: unknown step")

	// ErrStepNotCurrent is returned when a submission targets a step other
	// than the first active, not-yet-completed one.
	ErrStepNotCurrent = errors.New("wizard: step is not current")

	// ErrRunFinalized is returned on any attempt to touch a finished run.
	ErrRunFinalized = errors.New("wizard: run already finalized")

	// ErrRunNotComplete is returned by Finalize while active steps remain.
	ErrRunNotComplete = errors.New("wizard: active steps remain")

	// ErrRunNotFound is returned for unknown or expired run IDs.
	ErrRunNotFound = errors.New("wizard: run not found")
)

// ValidationError carries a per-field error back to the caller so the
// current step can be re-rendered instead of aborting the flow.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("wizard: invalid field %q: %s", e.Field, e.Reason)
}

// Step is one named stage of a flow.
type Step struct {
	Name string

	// Active decides whether the step applies to this run. Nil means
	// always active. Evaluated against the accumulated run state on every
	// navigation, never cached: a fact captured mid-flow may flip it.
	Active func(*Run) bool

	// Validate checks a submission before it is stored. Nil accepts any
	// data. Should return *ValidationError for field-level problems.
	Validate func(*Run, map[string]string) error
}

// Engine executes one flow definition against runs kept in a StateStore.
type Engine struct {
	flow  string
	steps []Step
	store *StateStore
}

// New creates an engine. flow names the state-store namespace.
func New(flow string, steps []Step, store *StateStore) *Engine {
	return &Engine{flow: flow, steps: steps, store: store}
}

// Start creates and persists a fresh run with the given context facts.
func (e *Engine) Start(ctx context.Context, runCtx map[string]string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Context:   map[string]string{},
		Data:      map[string]map[string]string{},
		Completed: map[string]bool{},
	}
	for k, v := range runCtx {
		run.Context[k] = v
	}
	if err := e.store.Save(ctx, e.flow, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Load fetches a run by ID.
func (e *Engine) Load(ctx context.Context, runID string) (*Run, error) {
	return e.store.Load(ctx, e.flow, runID)
}

// Save persists run mutations made outside Submit (context facts learned
// mid-flow).
func (e *Engine) Save(ctx context.Context, run *Run) error {
	return e.store.Save(ctx, e.flow, run)
}

// ActiveSteps returns the names of steps whose predicate holds for the run,
// in flow order. Re-computed on every call.
func (e *Engine) ActiveSteps(run *Run) []string {
	var out []string
	for _, s := range e.steps {
		if s.Active == nil || s.Active(run) {
			out = append(out, s.Name)
		}
	}
	return out
}

// Current returns the first active, not-yet-completed step. ok is false when
// every active step is complete and the run is ready to finalize.
func (e *Engine) Current(run *Run) (name string, ok bool) {
	for _, s := range e.steps {
		if s.Active != nil && !s.Active(run) {
			continue
		}
		if !run.Completed[s.Name] {
			return s.Name, true
		}
	}
	return "", false
}

// Submit validates and stores data for the current step and advances.
// next is the new current step; done is true when no active steps remain.
func (e *Engine) Submit(ctx context.Context, run *Run, step string, data map[string]string) (next string, done bool, err error) {
	if run.Finalized {
		return "", false, ErrRunFinalized
	}
	s := e.step(step)
	if s == nil {
		return "", false, ErrUnknownStep
	}
	current, ok := e.Current(run)
	if !ok || current != step {
		return "", false, ErrStepNotCurrent
	}
	if s.Validate != nil {
		if err := s.Validate(run, data); err != nil {
			return "", false, err
		}
	}

	if run.Data == nil {
		run.Data = map[string]map[string]string{}
	}
	if run.Completed == nil {
		run.Completed = map[string]bool{}
	}
	run.Data[step] = data
	run.Completed[step] = true

	if err := e.store.Save(ctx, e.flow, run); err != nil {
		return "", false, err
	}

	logger.From(ctx).Debug("wizard step captured",
		logger.Component("wizard."+e.flow), logger.RunID(run.ID), logger.Step(step))

	next, ok = e.Current(run)
	return next, !ok, nil
}

// Goto repositions the run at the given step: completion marks from the
// target onward are cleared, and skipping is re-evaluated from there. Used
// for out-of-band signals such as an activation code arriving in a query
// parameter mid-flow.
func (e *Engine) Goto(ctx context.Context, run *Run, step string) error {
	if run.Finalized {
		return ErrRunFinalized
	}
	idx := -1
	for i, s := range e.steps {
		if s.Name == step {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUnknownStep
	}
	for _, s := range e.steps[idx:] {
		delete(run.Completed, s.Name)
		delete(run.Data, s.Name)
	}
	return e.store.Save(ctx, e.flow, run)
}

// Finalize runs fn exactly once, after every active step is complete. On
// success the run is marked finalized and dropped from the store; on error
// nothing is recorded, so the caller may retry.
func (e *Engine) Finalize(ctx context.Context, run *Run, fn func(*Run) error) error {
	if run.Finalized {
		return ErrRunFinalized
	}
	if _, ok := e.Current(run); ok {
		return ErrRunNotComplete
	}
	if err := fn(run); err != nil {
		return err
	}
	run.Finalized = true
	if err := e.store.Save(ctx, e.flow, run); err != nil {
		// The flow outcome is already committed; a stale run record only
		// costs the TTL.
		logger.From(ctx).Warn("finalized run not persisted",
			logger.Component("wizard."+e.flow), logger.RunID(run.ID), logger.Err(err))
	}
	return nil
}

func (e *Engine) step(name string) *Step {
	for i := range e.steps {
		if e.steps[i].Name == name {
			return &e.steps[i]
		}
	}
	return nil
}
