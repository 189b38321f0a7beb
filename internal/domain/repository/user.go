package repository

import (
	"context"
	"time"
)

// User is a local account. IdentityID references the identity record at the
// external IDM core; it is nil until activation binds one and unique once set.
type User struct {
	ID           string
	IdentityID   *string
	IdentityType string // "Person", "Organization"; mirrors IDM
	State        string // IDM identity state ("established", "pending", ...)
	IsActive     bool
	Primary      bool
	FirstName    string
	LastName     string
	Email        string
	DateOfBirth  string // ISO 8601 date, empty when unknown
	PasswordHash *string
	CreatedAt    time.Time
}

// CreateUserInput carries the fields set at signup. Accounts are always
// created inactive; activation happens via emailed key or claim redemption.
type CreateUserInput struct {
	IdentityID   *string
	Primary      bool
	FirstName    string
	LastName     string
	Email        string
	DateOfBirth  string
	PasswordHash *string
}

// UpdateUserInput carries the fields identity sync refreshes. Nil pointers
// leave the column untouched.
type UpdateUserInput struct {
	IdentityType *string
	State        *string
	FirstName    *string
	LastName     *string
	Email        *string
}

// UserRepository defines operations on local accounts.
type UserRepository interface {
	// GetByID returns ErrNotFound if the user does not exist.
	GetByID(ctx context.Context, userID string) (*User, error)

	// GetByEmail returns ErrNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts a new inactive user. Returns ErrConflict when the
	// email or identity binding already exists.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// Update refreshes profile fields (identity sync).
	Update(ctx context.Context, userID string, input UpdateUserInput) error

	// BindIdentity sets the identity reference on a user that has none.
	// Returns ErrConflict if the identity is already bound elsewhere.
	BindIdentity(ctx context.Context, userID, identityID string) error

	// Activate marks the user active.
	Activate(ctx context.Context, userID string) error
}
