package driven

import (
	"context"
	"time"

	"github.com/feldrim/ghdesk/internal/domain/model"
)

// IssueStore persists cached issues, their pull request extensions, and the
// per-user relevance links.
type IssueStore interface {
	// Reconcile merges a fetched batch into the cache for the given user and
	// advances the user's refresh timestamp to when, all in one transaction.
	// A partially applied batch is never observable. Conflicting rows are
	// updated on their remote fields only; last-viewed and archived state
	// survive re-reconciliation. An empty batch still advances the timestamp.
	Reconcile(ctx context.Context, userID int64, when time.Time, issues []model.Issue) error

	// Get returns a cached issue by ID regardless of archival state.
	// Returns nil, nil when the row does not exist.
	Get(ctx context.Context, id int64) (*model.Issue, error)

	// ListAuthoredBy returns non-archived issues authored by login, most
	// recently updated first.
	ListAuthoredBy(ctx context.Context, login string) ([]model.Issue, error)

	// ListInvolving returns non-archived issues linked to login's feed but not
	// authored by them, most recently updated first.
	ListInvolving(ctx context.Context, login string) ([]model.Issue, error)

	// MarkViewed sets the last-viewed timestamp on the given issues to now.
	MarkViewed(ctx context.Context, ids []int64) error

	// Archive sets the archived timestamp on the given issues to now,
	// excluding them from feed queries while leaving the rows intact.
	Archive(ctx context.Context, ids []int64) error
}
