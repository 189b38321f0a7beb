package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/dropDatabas3/onboard/internal/cache/memory"
)

func newTestEngine(t *testing.T, steps []Step) *Engine {
	t.Helper()
	return New("test", steps, NewStateStore(cachemem.New("t:"), 0))
}

func threeSteps() []Step {
	return []Step{
		{Name: "one"},
		{Name: "two", Active: func(r *Run) bool { return r.Ctx("want_two") == "1" }},
		{Name: "three"},
	}
}

func TestCurrent_SkipsInactiveSteps(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, threeSteps())

	run, err := e.Start(ctx, nil)
	require.NoError(t, err)

	cur, ok := e.Current(run)
	require.True(t, ok)
	assert.Equal(t, "one", cur)

	next, done, err := e.Submit(ctx, run, "one", map[string]string{"a": "1"})
	require.NoError(t, err)
	assert.False(t, done)
	// "two" is inactive, so the engine skips straight to "three".
	assert.Equal(t, "three", next)

	_, done, err = e.Submit(ctx, run, "three", nil)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestSubmit_OutOfOrderRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, threeSteps())
	run, err := e.Start(ctx, nil)
	require.NoError(t, err)

	_, _, err = e.Submit(ctx, run, "three", nil)
	assert.ErrorIs(t, err, ErrStepNotCurrent)

	_, _, err = e.Submit(ctx, run, "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestPredicate_ReevaluatedAfterMidFlowFact(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, threeSteps())
	run, err := e.Start(ctx, nil)
	require.NoError(t, err)

	next, _, err := e.Submit(ctx, run, "one", nil)
	require.NoError(t, err)
	assert.Equal(t, "three", next)

	// A fact learned mid-flow re-activates "two" on the next evaluation.
	run.SetCtx("want_two", "1")
	require.NoError(t, e.Save(ctx, run))

	cur, ok := e.Current(run)
	require.True(t, ok)
	assert.Equal(t, "two", cur)

	// And forgetting the fact skips it again.
	run.SetCtx("want_two", "")
	cur, ok = e.Current(run)
	require.True(t, ok)
	assert.Equal(t, "three", cur)
}

func TestGoto_ClearsFromTargetForward(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []Step{{Name: "one"}, {Name: "two"}, {Name: "three"}})
	run, err := e.Start(ctx, nil)
	require.NoError(t, err)

	_, _, err = e.Submit(ctx, run, "one", map[string]string{"v": "1"})
	require.NoError(t, err)
	_, _, err = e.Submit(ctx, run, "two", map[string]string{"v": "2"})
	require.NoError(t, err)

	require.NoError(t, e.Goto(ctx, run, "two"))

	cur, ok := e.Current(run)
	require.True(t, ok)
	assert.Equal(t, "two", cur)
	// Step one's data survives, step two's was discarded.
	assert.Equal(t, "1", run.Field("one", "v"))
	assert.Nil(t, run.StepData("two"))
}

func TestValidate_FieldErrorKeepsStepCurrent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []Step{{
		Name: "only",
		Validate: func(_ *Run, data map[string]string) error {
			if data["email"] == "" {
				return &ValidationError{Field: "email", Reason: "required"}
			}
			return nil
		},
	}})
	run, err := e.Start(ctx, nil)
	require.NoError(t, err)

	_, _, err = e.Submit(ctx, run, "only", map[string]string{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	cur, ok := e.Current(run)
	require.True(t, ok)
	assert.Equal(t, "only", cur)
}

func TestFinalize_ExactlyOnceAndRetryable(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []Step{{Name: "only"}})
	run, err := e.Start(ctx, nil)
	require.NoError(t, err)

	// Too early.
	err = e.Finalize(ctx, run, func(*Run) error { return nil })
	assert.ErrorIs(t, err, ErrRunNotComplete)

	_, done, err := e.Submit(ctx, run, "only", nil)
	require.NoError(t, err)
	require.True(t, done)

	// A failing finalize leaves the run open for retry.
	boom := errors.New("boom")
	err = e.Finalize(ctx, run, func(*Run) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, run.Finalized)

	calls := 0
	require.NoError(t, e.Finalize(ctx, run, func(*Run) error { calls++; return nil }))
	assert.Equal(t, 1, calls)

	err = e.Finalize(ctx, run, func(*Run) error { calls++; return nil })
	assert.ErrorIs(t, err, ErrRunFinalized)
	assert.Equal(t, 1, calls)
}

func TestLoad_RoundTripAndMissing(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, threeSteps())
	run, err := e.Start(ctx, map[string]string{"want_two": "1"})
	require.NoError(t, err)
	_, _, err = e.Submit(ctx, run, "one", map[string]string{"a": "b"})
	require.NoError(t, err)

	got, err := e.Load(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", got.Ctx("want_two"))
	assert.Equal(t, "b", got.Field("one", "a"))

	_, err = e.Load(ctx, "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
