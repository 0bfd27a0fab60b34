package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feldrim/ghdesk/internal/domain/model"
)

func testIssue(id int64, author string, updatedAt time.Time) model.Issue {
	return model.Issue{
		ID:        id,
		Number:    int(id),
		Title:     "test issue",
		Author:    author,
		AuthorID:  100,
		URL:       "https://github.com/acme/widgets/issues/1",
		RepoOwner: "acme",
		RepoName:  "widgets",
		State:     "open",
		CreatedAt: updatedAt.Add(-time.Hour),
		UpdatedAt: updatedAt,
	}
}

func TestIssueRepo_ReconcileRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepo(db)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	require.NoError(t, users.Upsert(ctx, model.User{ID: 1, Login: "octocat"}))

	now := time.Now().UTC().Truncate(time.Second)
	merged := now.Add(-time.Minute)
	pr := testIssue(10, "octocat", now)
	pr.State = "merged"
	pr.ClosedAt = &merged
	pr.PullRequest = &model.PullRequestFields{
		IsDraft:        true,
		ReviewDecision: "approved",
		MergedAt:       &merged,
	}

	require.NoError(t, repo.Reconcile(ctx, 1, now, []model.Issue{pr}))

	got, err := repo.Get(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pr, *got)
	assert.True(t, got.IsPullRequest())
}

func TestIssueRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueRepo(db)

	got, err := repo.Get(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIssueRepo_ReconcilePreservesLocalState(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepo(db)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	require.NoError(t, users.Upsert(ctx, model.User{ID: 1, Login: "octocat"}))

	now := time.Now().UTC().Truncate(time.Second)
	issue := testIssue(10, "octocat", now)
	require.NoError(t, repo.Reconcile(ctx, 1, now, []model.Issue{issue}))
	require.NoError(t, repo.MarkViewed(ctx, []int64{10}))
	require.NoError(t, repo.Archive(ctx, []int64{10}))

	// A later fetch sees the same issue with a new title.
	issue.Title = "updated remotely"
	issue.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, repo.Reconcile(ctx, 1, now.Add(time.Minute), []model.Issue{issue}))

	got, err := repo.Get(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "updated remotely", got.Title)
	assert.NotNil(t, got.LastViewed)
	assert.NotNil(t, got.ArchivedAt)
}

func TestIssueRepo_ReconcileIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	// User 99 doesn't exist, so linking fails and the whole batch rolls back.
	now := time.Now().UTC()
	err := repo.Reconcile(ctx, 99, now, []model.Issue{testIssue(10, "octocat", now)})
	require.Error(t, err)

	got, err := repo.Get(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIssueRepo_EmptyBatchAdvancesRefresh(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepo(db)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	require.NoError(t, users.Upsert(ctx, model.User{ID: 1, Login: "octocat"}))

	when := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Reconcile(ctx, 1, when, nil))

	got, err := users.RefreshedAt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, when, got)
}

func TestIssueRepo_Feeds(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepo(db)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	require.NoError(t, users.Upsert(ctx, model.User{ID: 1, Login: "octocat"}))

	now := time.Now().UTC().Truncate(time.Second)
	authoredOld := testIssue(10, "octocat", now.Add(-time.Hour))
	authoredNew := testIssue(11, "octocat", now)
	involved := testIssue(12, "friend", now)
	require.NoError(t, repo.Reconcile(ctx, 1, now, []model.Issue{authoredOld, authoredNew, involved}))

	authored, err := repo.ListAuthoredBy(ctx, "octocat")
	require.NoError(t, err)
	require.Len(t, authored, 2)
	// Most recently updated first.
	assert.Equal(t, int64(11), authored[0].ID)
	assert.Equal(t, int64(10), authored[1].ID)

	involving, err := repo.ListInvolving(ctx, "octocat")
	require.NoError(t, err)
	require.Len(t, involving, 1)
	assert.Equal(t, int64(12), involving[0].ID)
}

func TestIssueRepo_ArchiveHidesFromFeeds(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepo(db)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	require.NoError(t, users.Upsert(ctx, model.User{ID: 1, Login: "octocat"}))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Reconcile(ctx, 1, now, []model.Issue{
		testIssue(10, "octocat", now),
		testIssue(11, "friend", now),
	}))

	require.NoError(t, repo.Archive(ctx, []int64{10, 11}))

	authored, err := repo.ListAuthoredBy(ctx, "octocat")
	require.NoError(t, err)
	assert.Empty(t, authored)

	involving, err := repo.ListInvolving(ctx, "octocat")
	require.NoError(t, err)
	assert.Empty(t, involving)

	// Archived rows stay retrievable by ID.
	got, err := repo.Get(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.ArchivedAt)
}

func TestIssueRepo_MarkViewedOnlyTouchesViewState(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepo(db)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	require.NoError(t, users.Upsert(ctx, model.User{ID: 1, Login: "octocat"}))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Reconcile(ctx, 1, now, []model.Issue{testIssue(10, "octocat", now)}))
	require.NoError(t, repo.MarkViewed(ctx, []int64{10}))

	got, err := repo.Get(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.LastViewed)
	assert.Nil(t, got.ArchivedAt)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestIssueRepo_StampEmptyBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	assert.NoError(t, repo.MarkViewed(ctx, nil))
	assert.NoError(t, repo.Archive(ctx, nil))
}
