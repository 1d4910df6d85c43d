package storage

import (
	"context"
	"time"

	"github.com/peopledesk/hrms/internal/models"
)

// UserStorage defines interface for account persistence.
// It doubles as the session store: the single refresh-token slot on the
// user row is the only server-side session state.
type UserStorage interface {
	// CreateUser creates a new user account
	// Returns ErrUserAlreadyExists if email is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves user by email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByRefreshToken retrieves the user whose current refresh token
	// equals the presented value. Only active accounts match.
	// Returns ErrUserNotFound otherwise.
	GetUserByRefreshToken(ctx context.Context, token string) (*models.User, error)

	// UpdateProfile updates display name and picture for the account
	// Returns ErrUserNotFound if user doesn't exist
	UpdateProfile(ctx context.Context, email string, name, picture *string) error

	// SetRefreshToken overwrites the account's refresh token slot.
	// Overwriting implicitly invalidates the previous value.
	// Returns ErrUserNotFound if user doesn't exist.
	SetRefreshToken(ctx context.Context, email, token string) error

	// ClearRefreshToken empties the refresh token slot.
	// Reports whether an account existed to clear.
	ClearRefreshToken(ctx context.Context, email string) (bool, error)

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, email string, lastLogin time.Time) error
}
