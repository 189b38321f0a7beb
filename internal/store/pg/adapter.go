// Package pg implements the onboarding repositories on PostgreSQL via pgx.
// Schema lives in migrations/postgres.
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
)

// Adapter holds the pgx pool and exposes the repositories.
type Adapter struct {
	pool        *pgxpool.Pool
	users       *userRepo
	activations *activationRepo
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, dsn string) (*Adapter, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Adapter{
		pool:        pool,
		users:       &userRepo{pool: pool},
		activations: &activationRepo{pool: pool},
	}, nil
}

func (a *Adapter) Users() repository.UserRepository { return a.users }

func (a *Adapter) PendingActivations() repository.PendingActivationRepository {
	return a.activations
}

func (a *Adapter) Ping(ctx context.Context) error { return a.pool.Ping(ctx) }

func (a *Adapter) Close() { a.pool.Close() }
