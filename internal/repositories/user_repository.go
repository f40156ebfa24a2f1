package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"
)

// ErrDuplicateEmail is returned by Create when another user already has the email.
var ErrDuplicateEmail = errors.New("email already exists")

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create assigns ID and timestamps. It fails with ErrDuplicateEmail when
	// the email is taken, even if a concurrent Create got there first.
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
