// Package auth is the identity provider: email/password accounts backed by
// bcrypt hashes and stateless HS256 access tokens. The rest of the service
// consumes it only through "verify token -> user id/email".
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is the verified caller attached to authenticated requests.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// UserStore is the account storage consumed by the service. Create must
// return ErrEmailTaken (wrapped is fine) on a duplicate email; lookups must
// return ErrUserNotFound for missing accounts.
type UserStore interface {
	Create(ctx context.Context, u User) error
	ByEmail(ctx context.Context, email string) (User, error)
	ByID(ctx context.Context, id uuid.UUID) (User, error)
}
