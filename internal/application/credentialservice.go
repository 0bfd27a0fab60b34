package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// TokenStatus describes the stored credential for the GUI.
type TokenStatus struct {
	// State is "missing", "invalid", or "ok".
	State string `json:"state"`

	// Login is the credential owner's login, set only when State is "ok".
	Login string `json:"login,omitempty"`
}

// CredentialService verifies and stores the API token.
type CredentialService struct {
	creds    driven.CredentialStore
	users    driven.UserStore
	factory  driven.ClientFactory
	notifier driven.Notifier
}

// NewCredentialService creates a CredentialService.
func NewCredentialService(
	creds driven.CredentialStore,
	users driven.UserStore,
	factory driven.ClientFactory,
	notifier driven.Notifier,
) *CredentialService {
	return &CredentialService{
		creds:    creds,
		users:    users,
		factory:  factory,
		notifier: notifier,
	}
}

// SetToken verifies token against the live API and, on success, stores it as
// the active credential together with its owner. A token that fails
// verification is never persisted.
func (s *CredentialService) SetToken(ctx context.Context, token string) (*model.User, error) {
	owner, err := s.factory(token).Whoami(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if err := s.creds.SetActive(ctx, token, *owner); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	slog.Info("token set", "login", owner.Login)
	s.notifier.TokenSet(*owner)
	s.notifier.UserUpdated(*owner)

	return owner, nil
}

// Status reports whether a usable credential is stored and who owns it.
func (s *CredentialService) Status(ctx context.Context) (*TokenStatus, error) {
	_, err := s.creds.Active(ctx)
	switch {
	case errors.Is(err, driven.ErrCredentialMissing):
		return &TokenStatus{State: "missing"}, nil
	case errors.Is(err, driven.ErrCredentialInvalid):
		return &TokenStatus{State: "invalid"}, nil
	case err != nil:
		return nil, fmt.Errorf("token status: %w", err)
	}

	owner, err := s.users.MainUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("token status: %w", err)
	}

	return &TokenStatus{State: "ok", Login: owner.Login}, nil
}
