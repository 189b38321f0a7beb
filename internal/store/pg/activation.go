package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
)

type activationRepo struct {
	pool *pgxpool.Pool
}

func (r *activationRepo) Get(ctx context.Context, activationCode string) (*repository.PendingActivation, error) {
	var pa repository.PendingActivation
	err := r.pool.QueryRow(ctx, `
		SELECT activation_code, identity_id, created_at
		FROM pending_activation WHERE activation_code = $1`,
		activationCode,
	).Scan(&pa.ActivationCode, &pa.IdentityID, &pa.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pa, nil
}

func (r *activationRepo) Create(ctx context.Context, pa repository.PendingActivation) error {
	if pa.CreatedAt.IsZero() {
		pa.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pending_activation (activation_code, identity_id, created_at)
		VALUES ($1, $2, $3)`,
		pa.ActivationCode, pa.IdentityID, pa.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *activationRepo) Consume(ctx context.Context, activationCode string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM pending_activation WHERE activation_code = $1`, activationCode)
	if err != nil {
		return err
	}
	// First successful delete wins; anyone else sees not-found.
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *activationRepo) List(ctx context.Context) ([]repository.PendingActivation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT activation_code, identity_id, created_at
		FROM pending_activation ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.PendingActivation
	for rows.Next() {
		var pa repository.PendingActivation
		if err := rows.Scan(&pa.ActivationCode, &pa.IdentityID, &pa.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pa)
	}
	return out, rows.Err()
}
