// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// RefreshService decides which tracked users need refreshing and runs the
// fetch-and-reconcile cycle for them. It reads the credential fresh from the
// store for every unit of work, so token replacement and invalidation take
// effect on the very next refresh.
type RefreshService struct {
	creds    driven.CredentialStore
	users    driven.UserStore
	issues   driven.IssueStore
	factory  driven.ClientFactory
	notifier driven.Notifier
	window   time.Duration
}

// NewRefreshService creates a RefreshService. window is how long a completed
// refresh stays fresh before the user is due again.
func NewRefreshService(
	creds driven.CredentialStore,
	users driven.UserStore,
	issues driven.IssueStore,
	factory driven.ClientFactory,
	notifier driven.Notifier,
	window time.Duration,
) *RefreshService {
	return &RefreshService{
		creds:    creds,
		users:    users,
		issues:   issues,
		factory:  factory,
		notifier: notifier,
		window:   window,
	}
}

// IsStale reports whether the user is due for a refresh: never refreshed, or
// last refreshed longer than the window ago.
func (s *RefreshService) IsStale(ctx context.Context, userID int64) (bool, error) {
	refreshedAt, err := s.users.RefreshedAt(ctx, userID)
	if errors.Is(err, driven.ErrNeverRefreshed) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return time.Since(refreshedAt) >= s.window, nil
}

// RefreshUser fetches the user's current involvement and reconciles it into
// the cache. A credential rejection invalidates the stored token and notifies
// the GUI before returning the error.
func (s *RefreshService) RefreshUser(ctx context.Context, user model.User) error {
	cred, err := s.creds.Active(ctx)
	if err != nil {
		return fmt.Errorf("refresh %q: %w", user.Login, err)
	}
	client := s.factory(cred.Token)

	// First refresh fetches the full open involvement; later ones only what
	// changed since the last completed refresh.
	var since *time.Time
	refreshedAt, err := s.users.RefreshedAt(ctx, user.ID)
	switch {
	case err == nil:
		since = &refreshedAt
	case errors.Is(err, driven.ErrNeverRefreshed):
		// Full fetch.
	default:
		return fmt.Errorf("refresh %q: %w", user.Login, err)
	}

	update, err := client.SearchUserIssues(ctx, user.Login, since)
	if err != nil {
		if errors.Is(err, driven.ErrCredentialInvalid) {
			s.handleInvalidCredential(ctx)
		}
		return fmt.Errorf("refresh %q: %w", user.Login, err)
	}

	if err := s.issues.Reconcile(ctx, user.ID, update.When, update.Issues); err != nil {
		return fmt.Errorf("refresh %q: %w", user.Login, err)
	}

	if len(update.Issues) > 0 {
		s.notifier.UserDataUpdated(user.Login)
	}

	slog.Info("user refreshed",
		"login", user.Login,
		"issues", len(update.Issues),
		"initial", since == nil,
	)

	return nil
}

// ProcessAll refreshes every stale tracked user. Without a valid credential
// the whole pass is skipped; a credential rejection mid-pass aborts it, since
// every remaining user would fail the same way. Per-user transient failures
// are logged and the pass continues.
func (s *RefreshService) ProcessAll(ctx context.Context) error {
	if _, err := s.creds.Active(ctx); err != nil {
		if errors.Is(err, driven.ErrCredentialMissing) || errors.Is(err, driven.ErrCredentialInvalid) {
			slog.Debug("refresh pass skipped", "reason", err)
			return nil
		}
		return fmt.Errorf("refresh pass: %w", err)
	}

	cutoff := time.Now().Add(-s.window)
	stale, err := s.users.ListStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("refresh pass: %w", err)
	}

	var refreshErrors int
	for _, user := range stale {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := s.RefreshUser(ctx, user); err != nil {
			if errors.Is(err, driven.ErrCredentialInvalid) {
				slog.Warn("refresh pass aborted, credential rejected", "login", user.Login)
				return nil
			}
			slog.Error("user refresh failed", "login", user.Login, "error", err)
			refreshErrors++
		}
	}

	if len(stale) > 0 {
		slog.Info("refresh pass complete", "stale", len(stale), "errors", refreshErrors)
	}

	return nil
}

// handleInvalidCredential flips the stored token to invalid and surfaces the
// rejection. Refresh activity stays halted until a new token arrives.
func (s *RefreshService) handleInvalidCredential(ctx context.Context) {
	if err := s.creds.InvalidateActive(ctx); err != nil {
		slog.Error("credential invalidation failed", "error", err)
	}
	s.notifier.TokenInvalid()
}
