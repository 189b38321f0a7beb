// Package activation exposes the claim wizard over HTTP.
package activation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/onboard/internal/http/dto/onboarding"
	"github.com/dropDatabas3/onboard/internal/http/helpers"
	activationsvc "github.com/dropDatabas3/onboard/internal/onboarding/activation"
)

// Controller handles the /v1/activation routes.
type Controller struct {
	svc *activationsvc.Service
}

func New(svc *activationsvc.Service) *Controller {
	return &Controller{svc: svc}
}

// Register mounts the routes.
func (c *Controller) Register(r chi.Router) {
	r.Post("/v1/activation/start", c.start)
	r.Get("/v1/activation/done", c.done)
	r.Get("/v1/activation/{step}", c.describe)
	r.Post("/v1/activation/{step}", c.submit)
}

func (c *Controller) start(w http.ResponseWriter, r *http.Request) {
	var req onboarding.StartActivationRequest
	if r.ContentLength > 0 {
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
	}
	if req.ActivationCode == "" {
		req.ActivationCode = r.URL.Query().Get("activation_code")
	}

	res, err := c.svc.Start(r.Context(), activationsvc.StartInput{
		UserID:         helpers.UserID(r),
		ActivationCode: req.ActivationCode,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	out := onboarding.RunState{
		Run:         res.Run.ID,
		CurrentStep: res.CurrentStep,
	}
	if res.CodeError != nil {
		out.CodeError = &onboarding.FieldError{Field: res.CodeError.Field, Reason: res.CodeError.Reason}
	}
	helpers.WriteJSON(w, http.StatusCreated, out)
}

// describe reports the run state. A caller who left for login comes back
// authenticated; the run picks the user up before rendering. An
// activation_code query parameter re-enters the flow at the code step.
func (c *Controller) describe(w http.ResponseWriter, r *http.Request) {
	runID := helpers.RunID(r)
	userID := helpers.UserID(r)

	var state *activationsvc.State
	var err error
	switch {
	case r.URL.Query().Get("activation_code") != "":
		state, err = c.svc.ApplyCode(r.Context(), runID, userID, r.URL.Query().Get("activation_code"))
	case userID != "":
		state, err = c.svc.Attach(r.Context(), runID, userID)
	default:
		state, err = c.svc.Describe(r.Context(), runID)
	}
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	out := onboarding.RunState{
		Run:         state.Run.ID,
		CurrentStep: state.CurrentStep,
		ActiveSteps: state.ActiveSteps,
		Identity:    onboarding.IdentityFromIDM(state.Identity),
	}
	if state.CodeError != nil {
		out.CodeError = &onboarding.FieldError{Field: state.CodeError.Field, Reason: state.CodeError.Reason}
	}
	helpers.WriteJSON(w, http.StatusOK, out)
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
	out := onboarding.SubmitResponse{Next: res.Next, Done: res.Done, RedirectTo: res.RedirectTo}
	if res.Outcome != nil {
		out.Outcome = &onboarding.Outcome{
			Result:     res.Outcome.Result,
			RedirectTo: res.Outcome.RedirectTo,
		}
		out.RedirectTo = res.Outcome.RedirectTo
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

func (c *Controller) done(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "The identity has been connected to your account.",
	})
}
