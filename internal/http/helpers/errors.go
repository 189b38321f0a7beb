// Package helpers carries the JSON plumbing and error vocabulary shared by
// every controller.
package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
	"github.com/dropDatabas3/onboard/internal/idm"
	"github.com/dropDatabas3/onboard/internal/onboarding"
	"github.com/dropDatabas3/onboard/internal/onboarding/claim"
	"github.com/dropDatabas3/onboard/internal/onboarding/wizard"
)

// Standard error responses.
var (
	ErrInvalidJSON         = &HTTPError{Code: "invalid_json", Message: "Invalid JSON format", Status: http.StatusBadRequest}
	ErrBadRequest          = &HTTPError{Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrNotFound            = &HTTPError{Code: "not_found", Message: "Not found", Status: http.StatusNotFound}
	ErrInternalServerError = &HTTPError{Code: "internal_error", Message: "Internal server error", Status: http.StatusInternalServerError}

	ErrInvalidClaim = &HTTPError{Code: "invalid_claim", Message: "Invalid or expired claim", Status: http.StatusBadRequest}
	ErrUnknownActivation = &HTTPError{Code: "unknown_pending_activation", Message: "Activation code is unknown or already used", Status: http.StatusNotFound}
	ErrAlreadyAuthenticated = &HTTPError{Code: "already_authenticated", Message: "You cannot sign up for a new account while you are logged in", Status: http.StatusForbidden}
	ErrRegistrationClosed = &HTTPError{Code: "registration_closed", Message: "Registration is currently closed", Status: http.StatusServiceUnavailable}
	ErrIdentityService = &HTTPError{Code: "identity_service_failure", Message: "The identity service is unavailable", Status: http.StatusBadGateway}
	ErrRunNotFound = &HTTPError{Code: "run_not_found", Message: "Unknown or expired wizard run", Status: http.StatusNotFound}
	ErrStepNotCurrent = &HTTPError{Code: "step_not_current", Message: "Step is not the current one", Status: http.StatusConflict}
)

// HTTPError is the standard API error body.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// WithDetail returns a copy of the error with specific details.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	c := *e
	c.Detail = detail
	return &c
}

// FromError maps service errors onto the API vocabulary.
func FromError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		return &HTTPError{
			Code:    "invalid_field",
			Message: "Submitted data is invalid",
			Detail:  verr.Reason,
			Field:   verr.Field,
			Status:  http.StatusBadRequest,
		}
	}
	switch {
	case errors.Is(err, onboarding.ErrAlreadyAuthenticated):
		return ErrAlreadyAuthenticated
	case errors.Is(err, onboarding.ErrRegistrationClosed):
		return ErrRegistrationClosed
	case errors.Is(err, onboarding.ErrUnknownPendingActivation):
		return ErrUnknownActivation
	case errors.Is(err, claim.ErrInvalidClaim):
		return ErrInvalidClaim
	case errors.Is(err, idm.ErrServiceFailure):
		return ErrIdentityService
	case errors.Is(err, wizard.ErrRunNotFound):
		return ErrRunNotFound
	case errors.Is(err, wizard.ErrStepNotCurrent), errors.Is(err, wizard.ErrRunFinalized):
		return ErrStepNotCurrent
	case errors.Is(err, wizard.ErrUnknownStep):
		return ErrNotFound.WithDetail("unknown step")
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	default:
		return ErrInternalServerError
	}
}

// WriteError writes err as a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	httpErr := FromError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpErr.Status)
	_ = json.NewEncoder(w).Encode(httpErr)
}
