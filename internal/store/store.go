// Package store wires repository implementations to a concrete backend.
package store

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
	"github.com/dropDatabas3/onboard/internal/store/memory"
	"github.com/dropDatabas3/onboard/internal/store/pg"
)

// Store bundles the repositories behind one handle.
type Store interface {
	Users() repository.UserRepository
	PendingActivations() repository.PendingActivationRepository

	// Ping verifies the backend is reachable (readiness probes).
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close()
}

// Config selects the backend.
type Config struct {
	Driver string // "postgres" | "memory"
	DSN    string
}

// New builds a Store from config. The memory driver is meant for development
// and tests only.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return pg.New(ctx, cfg.DSN)
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
