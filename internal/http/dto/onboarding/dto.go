// Package onboarding defines the request and response shapes of the signup
// and activation endpoints.
package onboarding

import "github.com/dropDatabas3/onboard/internal/idm"

// StartSignupRequest opens a signup run. Claim and Next may equally arrive
// as query parameters on the start URL.
type StartSignupRequest struct {
	Claim string `json:"claim,omitempty"`
	Next  string `json:"next,omitempty"`

	// PartialToken resumes an interrupted social-login pipeline.
	PartialToken string `json:"partial_token,omitempty"`
}

// StartActivationRequest opens an activation run.
type StartActivationRequest struct {
	ActivationCode string `json:"activation_code,omitempty"`
}

// SubmitRequest carries one step's form data.
type SubmitRequest struct {
	Data map[string]string `json:"data"`
}

// FieldError reports a per-field validation problem on a started run.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Outcome is the terminal result of a run.
type Outcome struct {
	UserID     string `json:"user_id,omitempty"`
	Result     string `json:"result,omitempty"`
	Mode       string `json:"mode,omitempty"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// RunState describes a wizard run to the client.
type RunState struct {
	Run         string            `json:"run"`
	CurrentStep string            `json:"current_step,omitempty"`
	ActiveSteps []string          `json:"active_steps,omitempty"`
	Initial     map[string]string `json:"initial,omitempty"`
	Identity    *Identity         `json:"identity,omitempty"`
	ClaimError  *FieldError       `json:"claim_error,omitempty"`
	CodeError   *FieldError       `json:"code_error,omitempty"`
	Outcome     *Outcome          `json:"outcome,omitempty"`
}

// SubmitResponse reports a step submission.
type SubmitResponse struct {
	Next       string   `json:"next,omitempty"`
	Done       bool     `json:"done"`
	RedirectTo string   `json:"redirect_to,omitempty"`
	Outcome    *Outcome `json:"outcome,omitempty"`
}

// Identity is the subset of the IDM record shown while confirming details.
type Identity struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	State     string `json:"state"`
	Label     string `json:"label,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// IdentityFromIDM shapes an IDM record for display.
func IdentityFromIDM(identity *idm.Identity) *Identity {
	if identity == nil {
		return nil
	}
	out := &Identity{
		ID:    identity.ID,
		Type:  identity.Type,
		State: identity.State,
		Label: identity.Label,
	}
	if identity.PrimaryName != nil {
		out.FirstName = identity.PrimaryName.First
		out.LastName = identity.PrimaryName.Last
	}
	return out
}

// ActivateResponse reports an emailed-key redemption.
type ActivateResponse struct {
	UserID string `json:"user_id"`
	Active bool   `json:"active"`
}
