// Package onboarding holds the error taxonomy shared by the signup and
// activation flows. The flows themselves live in the subpackages.
package onboarding

import "errors"

var (
	// ErrUnknownPendingActivation means the activation code does not
	// resolve to a live pending activation: never provisioned, or already
	// consumed by an earlier finalize. Surfaces as a field error on the
	// current step, not a flow abort.
	ErrUnknownPendingActivation = errors.New("unknown or consumed activation code")

	// ErrAlreadyAuthenticated guards the signup flow: an authenticated
	// session may not create a second account through it.
	ErrAlreadyAuthenticated = errors.New("already authenticated")

	// ErrRegistrationClosed is the policy gate: registration is globally
	// closed and the request carries no claim.
	ErrRegistrationClosed = errors.New("registration closed")
)
