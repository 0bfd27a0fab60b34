package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// UserService manages the set of tracked users.
type UserService struct {
	users    driven.UserStore
	creds    driven.CredentialStore
	factory  driven.ClientFactory
	notifier driven.Notifier
}

// NewUserService creates a UserService.
func NewUserService(
	users driven.UserStore,
	creds driven.CredentialStore,
	factory driven.ClientFactory,
	notifier driven.Notifier,
) *UserService {
	return &UserService{
		users:    users,
		creds:    creds,
		factory:  factory,
		notifier: notifier,
	}
}

// Track resolves login against the live API and adds it to the tracked set.
// Unknown logins return ErrUserNotFound without touching the store.
func (s *UserService) Track(ctx context.Context, login string) (*model.User, error) {
	user, err := s.lookup(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", login, err)
	}

	if err := s.users.Upsert(ctx, *user); err != nil {
		return nil, fmt.Errorf("track %q: %w", login, err)
	}

	slog.Info("user tracked", "login", user.Login, "id", user.ID)
	s.notifier.UserUpdated(*user)

	return user, nil
}

// Exists checks against the live API whether login names a real GitHub user,
// without persisting anything.
func (s *UserService) Exists(ctx context.Context, login string) (bool, error) {
	_, err := s.lookup(ctx, login)
	if errors.Is(err, driven.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %q: %w", login, err)
	}

	return true, nil
}

// Get returns a tracked user by login from the store.
func (s *UserService) Get(ctx context.Context, login string) (*model.User, error) {
	return s.users.GetByLogin(ctx, login)
}

// MainUser returns the user owning the active credential.
func (s *UserService) MainUser(ctx context.Context) (*model.User, error) {
	return s.users.MainUser(ctx)
}

// ListTracked returns all tracked users.
func (s *UserService) ListTracked(ctx context.Context) ([]model.User, error) {
	return s.users.ListTracked(ctx)
}

func (s *UserService) lookup(ctx context.Context, login string) (*model.User, error) {
	cred, err := s.creds.Active(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.factory(cred.Token).GetUser(ctx, login)
	if err != nil {
		if errors.Is(err, driven.ErrCredentialInvalid) {
			if ierr := s.creds.InvalidateActive(ctx); ierr != nil {
				slog.Error("credential invalidation failed", "error", ierr)
			}
			s.notifier.TokenInvalid()
		}
		return nil, err
	}

	return user, nil
}
