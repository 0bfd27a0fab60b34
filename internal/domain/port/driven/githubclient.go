package driven

import (
	"context"
	"time"

	"github.com/feldrim/ghdesk/internal/domain/model"
)

// GitHubClient is the driven port for the remote GitHub API. Implementations
// are stateless beyond holding the credential for the call's duration and
// translate transport failures into the domain error taxonomy:
// authentication rejections become ErrCredentialInvalid, missing users or
// repositories become ErrUserNotFound/ErrRepositoryNotFound, and rate limits
// or malformed responses become ErrTransient.
type GitHubClient interface {
	// Whoami resolves the identity owning the client's credential.
	Whoami(ctx context.Context) (*model.User, error)

	// GetUser looks up a GitHub user by login.
	GetUser(ctx context.Context, login string) (*model.User, error)

	// SearchUserIssues returns all issues and pull requests involving login
	// (authored, mentioned, review-requested, or commented). With since nil it
	// fetches the full set of currently open involvement (initial population);
	// otherwise it fetches only items updated at or after since.
	SearchUserIssues(ctx context.Context, login string, since *time.Time) (*model.UserUpdate, error)

	// PullRequestDetail fetches the deep view of one pull request.
	PullRequestDetail(ctx context.Context, owner, repo string, number int) (*model.PullRequestDetail, error)
}

// ClientFactory builds a GitHubClient bound to the given token. Services
// construct a client per unit of work from the credential read fresh out of
// the store, so invalidation and replacement take effect on the very next
// refresh decision.
type ClientFactory func(token string) GitHubClient
