// Package onboarding exposes the emailed activation-key redemption endpoint.
package onboarding

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/onboard/internal/http/dto/onboarding"
	"github.com/dropDatabas3/onboard/internal/http/helpers"
	onboardingsvc "github.com/dropDatabas3/onboard/internal/onboarding"
)

// Controller handles GET /v1/onboarding/activate.
type Controller struct {
	activator *onboardingsvc.Activator
}

func New(activator *onboardingsvc.Activator) *Controller {
	return &Controller{activator: activator}
}

// Register mounts the routes.
func (c *Controller) Register(r chi.Router) {
	r.Get("/v1/onboarding/activate", c.activate)
}

func (c *Controller) activate(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("missing key"))
		return
	}
	user, err := c.activator.RedeemKey(r.Context(), key)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ActivateResponse{UserID: user.ID, Active: user.IsActive})
}
