package repository

import (
	"context"
	"time"
)

// PendingActivation references a pre-provisioned identity waiting to be
// claimed. At most one live row per activation code; redemption deletes it.
type PendingActivation struct {
	ActivationCode string
	IdentityID     string
	CreatedAt      time.Time
}

// PendingActivationRepository defines operations on pending activations.
type PendingActivationRepository interface {
	// Get returns ErrNotFound for unknown or already-consumed codes.
	Get(ctx context.Context, activationCode string) (*PendingActivation, error)

	// Create inserts a new pending activation. Returns ErrConflict when
	// the code is already live.
	Create(ctx context.Context, pa PendingActivation) error

	// Consume deletes the pending activation. Redemption is destructive:
	// a second Consume for the same code returns ErrNotFound.
	Consume(ctx context.Context, activationCode string) error

	// List returns all live pending activations, newest first.
	List(ctx context.Context) ([]PendingActivation, error)
}
