package driven

import (
	"context"
	"time"

	"github.com/feldrim/ghdesk/internal/domain/model"
)

// UserStore persists tracked users and their refresh state.
type UserStore interface {
	// Upsert inserts or updates a tracked user and, atomically with a new
	// user row, its never-refreshed sentinel.
	Upsert(ctx context.Context, user model.User) error

	// GetByLogin returns the tracked user with the given login, or
	// ErrUserNotFound.
	GetByLogin(ctx context.Context, login string) (*model.User, error)

	// MainUser returns the user owning the active credential, or
	// ErrUserNotFound when no valid credential exists.
	MainUser(ctx context.Context) (*model.User, error)

	// ListTracked returns all tracked users ordered by login.
	ListTracked(ctx context.Context) ([]model.User, error)

	// ListStale returns tracked users whose last successful refresh is absent
	// or strictly before cutoff, ordered by login.
	ListStale(ctx context.Context, cutoff time.Time) ([]model.User, error)

	// RefreshedAt returns the time of the user's last successful refresh.
	// It returns ErrNeverRefreshed for the sentinel state and ErrUserNotFound
	// when the user is not tracked.
	RefreshedAt(ctx context.Context, userID int64) (time.Time, error)
}
