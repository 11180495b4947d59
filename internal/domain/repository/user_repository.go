package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
)

// Storage-level sentinels. Implementations wrap these so callers can match
// with errors.Is regardless of the backing store.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateNickname = errors.New("duplicate nickname")
)

// ListOptions controls pagination of List.
type ListOptions struct {
	Offset int
	Limit  int
}

// UserRepository defines the interface for user-related database operations.
// Create and Update must enforce email/nickname uniqueness atomically.
// Update writes profile fields only; role, verification and lockout state
// change through their dedicated methods.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]*entity.User, int, error)
	Count(ctx context.Context) (int, error)

	// RecordLoginFailure atomically increments the failed attempt counter and
	// locks the account once the counter reaches threshold.
	RecordLoginFailure(ctx context.Context, id string, threshold int) (entity.LockoutState, error)
	// RecordLoginSuccess resets the lockout counter and stamps last_login_at.
	RecordLoginSuccess(ctx context.Context, id string) error
	// Unlock clears the lockout state.
	Unlock(ctx context.Context, id string) error
	SetVerified(ctx context.Context, id string, role entity.Role) error
	SetRole(ctx context.Context, id string, role entity.Role) error
}
