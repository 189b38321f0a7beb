// Package http assembles the service's HTTP surface: router, middlewares and
// the server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/onboard/internal/http/middlewares"
)

// Controller mounts a set of routes.
type Controller interface {
	Register(r chi.Router)
}

// NewRouter builds the service router: shared middlewares, the Prometheus
// endpoint and every controller's routes.
func NewRouter(controllers ...Controller) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middlewares.WithRequestID(),
		middlewares.WithLogging(),
		middlewares.WithRecover(),
		middlewares.WithNoStore(),
	)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	for _, c := range controllers {
		c.Register(r)
	}
	return r
}
