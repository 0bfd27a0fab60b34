package driven

import "github.com/feldrim/ghdesk/internal/domain/model"

// Notifier is the outbound notification port toward the GUI collaborator.
// Implementations must not block; delivery is best-effort.
type Notifier interface {
	// TokenSet signals that a new credential was verified and stored.
	TokenSet(user model.User)

	// TokenInvalid signals that the active credential was rejected upstream.
	// This is the one failure that must be surfaced proactively, since it
	// silently halts all refresh activity until a new token is supplied.
	TokenInvalid()

	// UserUpdated signals that a tracked user record was created or changed.
	UserUpdated(user model.User)

	// UserDataUpdated signals that a refresh changed the user's cached feed.
	UserDataUpdated(login string)

	// Tick is the periodic scheduler heartbeat.
	Tick(n int)
}
