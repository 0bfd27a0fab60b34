package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feldrim/ghdesk/internal/application"
	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

func TestCredentialService_SetToken(t *testing.T) {
	owner := model.User{ID: 42, Login: "octocat"}
	client := &mockGitHubClient{whoamiUser: &owner}
	creds := &mockCredentialStore{}
	users := &mockUserStore{}
	notifier := &mockNotifier{}
	svc := application.NewCredentialService(creds, users, staticFactory(client), notifier)

	got, err := svc.SetToken(context.Background(), "ghp_token")
	require.NoError(t, err)
	assert.Equal(t, owner, *got)

	require.Len(t, creds.setTokens, 1)
	assert.Equal(t, "ghp_token", creds.setTokens[0])
	assert.Equal(t, owner, creds.setOwners[0])
	assert.Equal(t, []string{"token_set", "user_update"}, notifier.events)
}

func TestCredentialService_SetTokenRejected(t *testing.T) {
	client := &mockGitHubClient{whoamiErr: driven.ErrCredentialInvalid}
	creds := &mockCredentialStore{}
	svc := application.NewCredentialService(creds, &mockUserStore{}, staticFactory(client), &mockNotifier{})

	_, err := svc.SetToken(context.Background(), "ghp_bogus")
	assert.ErrorIs(t, err, driven.ErrCredentialInvalid)

	// A rejected token must never reach the store.
	assert.Empty(t, creds.setTokens)
}

func TestCredentialService_Status(t *testing.T) {
	creds := &mockCredentialStore{activeErr: driven.ErrCredentialMissing}
	users := &mockUserStore{}
	svc := application.NewCredentialService(creds, users, staticFactory(&mockGitHubClient{}), &mockNotifier{})
	ctx := context.Background()

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "missing", status.State)

	creds.activeErr = driven.ErrCredentialInvalid
	status, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "invalid", status.State)

	creds.activeErr = nil
	creds.cred = &model.Credential{Token: "ghp_token", UserID: 42}
	users.mainUser = &model.User{ID: 42, Login: "octocat"}
	status, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", status.State)
	assert.Equal(t, "octocat", status.Login)
}
