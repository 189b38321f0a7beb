package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
)

type userRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `
	id, identity_id, identity_type, state, is_active, "primary",
	first_name, last_name, email, date_of_birth, password_hash, created_at
`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(
		&u.ID, &u.IdentityID, &u.IdentityType, &u.State, &u.IsActive, &u.Primary,
		&u.FirstName, &u.LastName, &u.Email, &u.DateOfBirth, &u.PasswordHash, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, userID)
	return scanUser(row)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE email = $1`, email)
	return scanUser(row)
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	u := repository.User{
		ID:           uuid.NewString(),
		IdentityID:   input.IdentityID,
		IsActive:     false,
		Primary:      input.Primary,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		DateOfBirth:  input.DateOfBirth,
		PasswordHash: input.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_user
			(id, identity_id, identity_type, state, is_active, "primary",
			 first_name, last_name, email, date_of_birth, password_hash, created_at)
		VALUES ($1, $2, '', '', $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.IdentityID, u.IsActive, u.Primary,
		u.FirstName, u.LastName, u.Email, u.DateOfBirth, u.PasswordHash, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Update(ctx context.Context, userID string, input repository.UpdateUserInput) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE app_user SET
			identity_type = COALESCE($2, identity_type),
			state         = COALESCE($3, state),
			first_name    = COALESCE($4, first_name),
			last_name     = COALESCE($5, last_name),
			email         = COALESCE($6, email)
		WHERE id = $1`,
		userID, input.IdentityType, input.State,
		input.FirstName, input.LastName, input.Email,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) BindIdentity(ctx context.Context, userID, identityID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE app_user SET identity_id = $2 WHERE id = $1 AND identity_id IS NULL`,
		userID, identityID,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) Activate(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE app_user SET is_active = TRUE WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports a Postgres 23505 error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
