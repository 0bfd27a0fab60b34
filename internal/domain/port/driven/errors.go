// Package driven defines the driven ports (outbound interfaces) of the domain.
package driven

import "errors"

// Domain error taxonomy. Adapters translate transport failures into these
// sentinels; services branch on them with errors.Is. Anything not listed here
// propagates as a wrapped opaque error.
var (
	// ErrCredentialMissing means no credential has ever been stored.
	ErrCredentialMissing = errors.New("no credential set")

	// ErrCredentialInvalid means every stored credential has been invalidated,
	// or the remote rejected the credential on an authenticated call.
	ErrCredentialInvalid = errors.New("credential invalid")

	// ErrUserNotFound means the user does not exist, locally or upstream.
	ErrUserNotFound = errors.New("user not found")

	// ErrPullRequestNotFound means the issue ID does not resolve to a pull request.
	ErrPullRequestNotFound = errors.New("pull request not found")

	// ErrRepositoryNotFound means the owning repository does not exist upstream.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrNeverRefreshed is the refresh-state sentinel: the user has no
	// successful refresh on record and always counts as stale.
	ErrNeverRefreshed = errors.New("never refreshed")

	// ErrTransient covers rate limiting, network failures, and malformed
	// responses: conditions a later tick is expected to recover from.
	ErrTransient = errors.New("transient remote error")
)
