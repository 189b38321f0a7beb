// Package signup exposes the signup wizard over HTTP.
package signup

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/onboard/internal/http/dto/onboarding"
	"github.com/dropDatabas3/onboard/internal/http/helpers"
	signupsvc "github.com/dropDatabas3/onboard/internal/onboarding/signup"
)

// Controller handles the /v1/signup routes.
type Controller struct {
	svc *signupsvc.Service
}

func New(svc *signupsvc.Service) *Controller {
	return &Controller{svc: svc}
}

// Register mounts the routes.
func (c *Controller) Register(r chi.Router) {
	r.Post("/v1/signup/start", c.start)
	r.Get("/v1/signup/done", c.done)
	r.Get("/v1/signup/{step}", c.describe)
	r.Post("/v1/signup/{step}", c.submit)
}

// start opens a run. Claim token and redirect target may come in the body or
// as query parameters, matching the URL the activation flow hands off to.
func (c *Controller) start(w http.ResponseWriter, r *http.Request) {
	var req onboarding.StartSignupRequest
	if r.ContentLength > 0 {
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
	}
	q := r.URL.Query()
	if req.Claim == "" {
		req.Claim = q.Get("claim")
	}
	if req.Next == "" {
		req.Next = q.Get("next")
	}
	if req.PartialToken == "" {
		req.PartialToken = q.Get("partial")
	}

	res, err := c.svc.Start(r.Context(), signupsvc.StartInput{
		Authenticated: helpers.UserID(r) != "",
		ClaimToken:    req.Claim,
		PartialToken:  req.PartialToken,
		RedirectTo:    req.Next,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	out := onboarding.RunState{
		Run:         res.Run.ID,
		CurrentStep: res.CurrentStep,
	}
	if res.ClaimInvalid {
		out.ClaimError = &onboarding.FieldError{Field: "claim", Reason: helpers.ErrInvalidClaim.Message}
	}
	if res.Outcome != nil {
		out.Outcome = &onboarding.Outcome{
			UserID:     res.Outcome.UserID,
			Mode:       res.Outcome.Mode,
			RedirectTo: res.Outcome.RedirectTo,
		}
	}
	helpers.WriteJSON(w, http.StatusCreated, out)
}

func (c *Controller) describe(w http.ResponseWriter, r *http.Request) {
	state, err := c.svc.Describe(r.Context(), helpers.RunID(r))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, onboarding.RunState{
		Run:         state.Run.ID,
		CurrentStep: state.CurrentStep,
		ActiveSteps: state.ActiveSteps,
		Initial:     state.Initial,
	})
}

func (c *Controller) submit(w http.ResponseWriter, r *http.Request) {
	var req onboarding.SubmitRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res, err := c.svc.Submit(r.Context(), helpers.RunID(r), chi.URLParam(r, "step"), req.Data)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	out := onboarding.SubmitResponse{Next: res.Next, Done: res.Done}
	if res.Outcome != nil {
		out.Outcome = &onboarding.Outcome{
			UserID:     res.Outcome.UserID,
			Mode:       res.Outcome.Mode,
			RedirectTo: res.Outcome.RedirectTo,
		}
		out.RedirectTo = res.Outcome.RedirectTo
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

func (c *Controller) done(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Your account has been created. Check your email for the activation link.",
		"next":    r.URL.Query().Get("next"),
	})
}
