package driven

import (
	"context"

	"github.com/feldrim/ghdesk/internal/domain/model"
)

// CredentialStore persists the shared API credential and its validity state.
type CredentialStore interface {
	// Active returns the most recently inserted valid credential. It returns
	// ErrCredentialMissing when no credential was ever stored and
	// ErrCredentialInvalid when credentials exist but all are invalidated,
	// so callers can give different user guidance.
	Active(ctx context.Context) (*model.Credential, error)

	// SetActive stores token as the new active credential owned by owner.
	// The token insert, the owner's user row, and the owner's refresh-state
	// sentinel are committed in one transaction: a reader must never observe
	// the credential without its user.
	SetActive(ctx context.Context, token string, owner model.User) error

	// InvalidateActive flips the currently valid credential to invalid.
	// Idempotent; a no-op when nothing is currently valid.
	InvalidateActive(ctx context.Context) error
}
