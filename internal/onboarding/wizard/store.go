package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/onboard/internal/cache"
)

// DefaultRunTTL bounds how long an abandoned wizard run survives.
const DefaultRunTTL = 2 * time.Hour

// StateStore persists runs as JSON in the shared KV cache, namespaced per
// flow so signup and activation run IDs cannot collide.
type StateStore struct {
	kv  cache.Client
	ttl time.Duration
}

// NewStateStore creates a store. ttl of 0 means DefaultRunTTL.
func NewStateStore(kv cache.Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	return &StateStore{kv: kv, ttl: ttl}
}

func runKey(flow, runID string) string {
	return fmt.Sprintf("wizard:%s:%s", flow, runID)
}

// Save persists the run, refreshing its TTL.
func (s *StateStore) Save(ctx context.Context, flow string, run *Run) error {
	b, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("wizard: marshal run: %w", err)
	}
	return s.kv.Set(ctx, runKey(flow, run.ID), b, s.ttl)
}

// Load fetches a run, returning ErrRunNotFound for unknown or expired IDs.
func (s *StateStore) Load(ctx context.Context, flow, runID string) (*Run, error) {
	b, err := s.kv.Get(ctx, runKey(flow, runID))
	if cache.IsNotFound(err) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	var run Run
	if err := json.Unmarshal(b, &run); err != nil {
		return nil, fmt.Errorf("wizard: unmarshal run: %w", err)
	}
	return &run, nil
}

// Delete drops a run.
func (s *StateStore) Delete(ctx context.Context, flow, runID string) error {
	return s.kv.Delete(ctx, runKey(flow, runID))
}
