package metadata

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/filebox/internal/auth"
)

// Users is the Postgres repository for accounts. It implements
// auth.UserStore.
type Users struct {
	pool *pgxpool.Pool
}

// NewUsers returns the repository bound to pool.
func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

// Create inserts a new account. Duplicate emails map to auth.ErrEmailTaken.
func (r *Users) Create(ctx context.Context, u auth.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if err == nil {
		return nil
	}
	if IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", auth.ErrEmailTaken, u.Email)
	}
	return fmt.Errorf("insert user: %w", err)
}

// ByEmail fetches an account by email.
func (r *Users) ByEmail(ctx context.Context, email string) (auth.User, error) {
	var u auth.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if IsNotFoundError(err) {
		return auth.User{}, fmt.Errorf("%w: %s", auth.ErrUserNotFound, email)
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ByID fetches an account by id.
func (r *Users) ByID(ctx context.Context, id uuid.UUID) (auth.User, error) {
	var u auth.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if IsNotFoundError(err) {
		return auth.User{}, fmt.Errorf("%w: %s", auth.ErrUserNotFound, id)
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}
