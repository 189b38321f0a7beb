// Package partial stores in-progress social-login pipeline state. A partial
// is created by the social-auth frontend when a provider handshake pauses for
// local details; signup finalization updates it and the pipeline resumes.
package partial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/onboard/internal/cache"
)

// ErrNotFound is returned for unknown or expired partial tokens.
var ErrNotFound = errors.New("partial: not found")

// DefaultTTL bounds how long an interrupted pipeline stays resumable.
const DefaultTTL = 24 * time.Hour

// Partial is one paused social-login pipeline, keyed by an opaque token that
// the HTTP layer carries in the caller's session.
type Partial struct {
	Token   string `json:"token"`
	Backend string `json:"backend"` // provider id, e.g. "google", "saml"

	// Details are the profile fields collected so far from the provider,
	// merged with locally captured ones on signup completion.
	Details map[string]string `json:"details"`

	// Kwargs is the pipeline's free-form state: user id once attached,
	// user_details_confirmed, and provider responses such as the SAML
	// idp name.
	Kwargs map[string]any `json:"kwargs"`
}

// IdPName digs the SAML identity-provider hint out of the pipeline state.
func (p *Partial) IdPName() string {
	resp, _ := p.Kwargs["response"].(map[string]any)
	name, _ := resp["idp_name"].(string)
	return name
}

// Store persists partials in the shared KV cache.
type Store struct {
	kv  cache.Client
	ttl time.Duration
}

// NewStore creates a Store. ttl of 0 means DefaultTTL.
func NewStore(kv cache.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{kv: kv, ttl: ttl}
}

func key(token string) string { return "partial:" + token }

// Get fetches a partial by token.
func (s *Store) Get(ctx context.Context, token string) (*Partial, error) {
	b, err := s.kv.Get(ctx, key(token))
	if cache.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p Partial
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("partial: unmarshal: %w", err)
	}
	return &p, nil
}

// Save persists a partial, refreshing its TTL.
func (s *Store) Save(ctx context.Context, p *Partial) error {
	if p.Token == "" {
		return errors.New("partial: empty token")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("partial: marshal: %w", err)
	}
	return s.kv.Set(ctx, key(p.Token), b, s.ttl)
}

// Delete drops a partial once its pipeline completed.
func (s *Store) Delete(ctx context.Context, token string) error {
	return s.kv.Delete(ctx, key(token))
}
