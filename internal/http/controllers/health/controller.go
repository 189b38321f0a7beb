// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/onboard/internal/http/helpers"
)

// Pinger is anything readiness depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller handles the probe routes.
type Controller struct {
	deps map[string]Pinger
}

// New builds a controller; deps maps a dependency name to its ping.
func New(deps map[string]Pinger) *Controller {
	return &Controller{deps: deps}
}

// Register mounts the routes.
func (c *Controller) Register(r chi.Router) {
	r.Get("/healthz", c.healthz)
	r.Get("/readyz", c.readyz)
}

func (c *Controller) healthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *Controller) readyz(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}
	for name, dep := range c.deps {
		if err := dep.Ping(r.Context()); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"failed": failed,
		})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
