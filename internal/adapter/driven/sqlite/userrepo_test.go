package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

func TestUserRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	user := model.User{ID: 1, Login: "octocat", Name: "The Octocat", AvatarURL: "https://example.com/a.png"}
	require.NoError(t, repo.Upsert(ctx, user))

	got, err := repo.GetByLogin(ctx, "octocat")
	require.NoError(t, err)
	assert.Equal(t, user, *got)

	// Re-upserting with changed profile fields updates in place.
	user.Name = "Octo Cat"
	require.NoError(t, repo.Upsert(ctx, user))

	got, err = repo.GetByLogin(ctx, "octocat")
	require.NoError(t, err)
	assert.Equal(t, "Octo Cat", got.Name)
}

func TestUserRepo_GetByLoginNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)

	_, err := repo.GetByLogin(context.Background(), "nobody")
	assert.ErrorIs(t, err, driven.ErrUserNotFound)
}

func TestUserRepo_MainUser(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepo(db)
	creds := NewCredentialRepo(db)
	ctx := context.Background()

	_, err := users.MainUser(ctx)
	assert.ErrorIs(t, err, driven.ErrUserNotFound)

	owner := model.User{ID: 7, Login: "octocat"}
	require.NoError(t, creds.SetActive(ctx, "ghp_token", owner))

	// Tracked users that don't own the credential are not the main user.
	require.NoError(t, users.Upsert(ctx, model.User{ID: 8, Login: "friend"}))

	got, err := users.MainUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "octocat", got.Login)

	require.NoError(t, creds.InvalidateActive(ctx))
	_, err = users.MainUser(ctx)
	assert.ErrorIs(t, err, driven.ErrUserNotFound)
}

func TestUserRepo_ListTracked(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.User{ID: 2, Login: "zed"}))
	require.NoError(t, repo.Upsert(ctx, model.User{ID: 1, Login: "alice"}))

	users, err := repo.ListTracked(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Login)
	assert.Equal(t, "zed", users[1].Login)
}

func TestUserRepo_RefreshedAt(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepo(db)
	issues := NewIssueRepo(db)
	ctx := context.Background()

	_, err := users.RefreshedAt(ctx, 99)
	assert.ErrorIs(t, err, driven.ErrUserNotFound)

	require.NoError(t, users.Upsert(ctx, model.User{ID: 1, Login: "octocat"}))
	_, err = users.RefreshedAt(ctx, 1)
	assert.ErrorIs(t, err, driven.ErrNeverRefreshed)

	when := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, issues.Reconcile(ctx, 1, when, nil))

	got, err := users.RefreshedAt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, when, got)
}

func TestUserRepo_ListStale(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepo(db)
	issues := NewIssueRepo(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	cutoff := now.Add(-5 * time.Minute)

	require.NoError(t, users.Upsert(ctx, model.User{ID: 1, Login: "never"}))
	require.NoError(t, users.Upsert(ctx, model.User{ID: 2, Login: "old"}))
	require.NoError(t, users.Upsert(ctx, model.User{ID: 3, Login: "fresh"}))

	require.NoError(t, issues.Reconcile(ctx, 2, now.Add(-time.Hour), nil))
	require.NoError(t, issues.Reconcile(ctx, 3, now, nil))

	stale, err := users.ListStale(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, "never", stale[0].Login)
	assert.Equal(t, "old", stale[1].Login)
}
