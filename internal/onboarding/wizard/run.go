package wizard

// Run is the accumulated state of one wizard execution. It is persisted as
// JSON in the state store between requests, keyed by ID.
type Run struct {
	ID string `json:"id"`

	// Context holds flow-scoped facts known at start or learned along the
	// way (authenticated session, resolved claim, social partial token).
	// Step predicates read it alongside the captured step data.
	Context map[string]string `json:"context"`

	// Data holds validated per-step submissions.
	Data map[string]map[string]string `json:"data"`

	// Completed marks steps whose data has been captured.
	Completed map[string]bool `json:"completed"`

	// Finalized guards the finalize callback: set only after it succeeds,
	// checked before it runs again.
	Finalized bool `json:"finalized"`
}

// Ctx returns a context value, "" when absent.
func (r *Run) Ctx(key string) string {
	return r.Context[key]
}

// SetCtx records a flow-scoped fact.
func (r *Run) SetCtx(key, value string) {
	if r.Context == nil {
		r.Context = map[string]string{}
	}
	r.Context[key] = value
}

// StepData returns the captured data for a step, nil when the step has not
// been completed.
func (r *Run) StepData(step string) map[string]string {
	return r.Data[step]
}

// Field returns one captured value, "" when absent.
func (r *Run) Field(step, name string) string {
	return r.Data[step][name]
}
