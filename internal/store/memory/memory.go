// Package memory implements the onboarding repositories in-process.
// Used by tests and local development without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
)

// Store is the in-memory backend.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*repository.User
	activations map[string]repository.PendingActivation
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:       map[string]*repository.User{},
		activations: map[string]repository.PendingActivation{},
	}
}

func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }

func (s *Store) PendingActivations() repository.PendingActivationRepository {
	return (*activationRepo)(s)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

type userRepo Store

func (r *userRepo) GetByID(_ context.Context, userID string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) Create(_ context.Context, input repository.CreateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email != "" && u.Email == input.Email {
			return nil, repository.ErrConflict
		}
		if input.IdentityID != nil && u.IdentityID != nil && *u.IdentityID == *input.IdentityID {
			return nil, repository.ErrConflict
		}
	}
	u := &repository.User{
		ID:           uuid.NewString(),
		IdentityID:   input.IdentityID,
		Primary:      input.Primary,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		DateOfBirth:  input.DateOfBirth,
		PasswordHash: input.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (r *userRepo) Update(_ context.Context, userID string, input repository.UpdateUserInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if input.IdentityType != nil {
		u.IdentityType = *input.IdentityType
	}
	if input.State != nil {
		u.State = *input.State
	}
	if input.FirstName != nil {
		u.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		u.LastName = *input.LastName
	}
	if input.Email != nil {
		u.Email = *input.Email
	}
	return nil
}

func (r *userRepo) BindIdentity(_ context.Context, userID, identityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.IdentityID != nil {
		return repository.ErrNotFound
	}
	for _, other := range r.users {
		if other.IdentityID != nil && *other.IdentityID == identityID {
			return repository.ErrConflict
		}
	}
	id := identityID
	u.IdentityID = &id
	return nil
}

func (r *userRepo) Activate(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = true
	return nil
}

type activationRepo Store

func (r *activationRepo) Get(_ context.Context, code string) (*repository.PendingActivation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pa, ok := r.activations[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pa, nil
}

func (r *activationRepo) Create(_ context.Context, pa repository.PendingActivation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.activations[pa.ActivationCode]; ok {
		return repository.ErrConflict
	}
	if pa.CreatedAt.IsZero() {
		pa.CreatedAt = time.Now().UTC()
	}
	r.activations[pa.ActivationCode] = pa
	return nil
}

func (r *activationRepo) Consume(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.activations[code]; !ok {
		return repository.ErrNotFound
	}
	delete(r.activations, code)
	return nil
}

func (r *activationRepo) List(_ context.Context) ([]repository.PendingActivation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repository.PendingActivation, 0, len(r.activations))
	for _, pa := range r.activations {
		out = append(out, pa)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
