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

func newIssueFixture(client *mockGitHubClient) (*application.IssueService, *mockCredentialStore, *mockIssueStore, *mockNotifier) {
	creds := &mockCredentialStore{cred: &model.Credential{Token: "ghp_token", UserID: 1}}
	issues := &mockIssueStore{stored: map[int64]model.Issue{}}
	notifier := &mockNotifier{}
	svc := application.NewIssueService(issues, creds, staticFactory(client), notifier)
	return svc, creds, issues, notifier
}

func TestIssueService_Feeds(t *testing.T) {
	svc, _, issues, _ := newIssueFixture(&mockGitHubClient{})
	issues.authored = []model.Issue{{ID: 10}}
	issues.involved = []model.Issue{{ID: 11}}
	ctx := context.Background()

	authored, err := svc.Authored(ctx, "octocat")
	require.NoError(t, err)
	assert.Equal(t, issues.authored, authored)

	involved, err := svc.Involved(ctx, "octocat")
	require.NoError(t, err)
	assert.Equal(t, issues.involved, involved)
}

func TestIssueService_MarkViewedAndArchive(t *testing.T) {
	svc, _, issues, _ := newIssueFixture(&mockGitHubClient{})
	ctx := context.Background()

	require.NoError(t, svc.MarkViewed(ctx, []int64{10, 11}))
	require.NoError(t, svc.Archive(ctx, []int64{12}))

	require.Len(t, issues.viewed, 1)
	assert.Equal(t, []int64{10, 11}, issues.viewed[0])
	require.Len(t, issues.archived, 1)
	assert.Equal(t, []int64{12}, issues.archived[0])
}

func TestIssueService_PullRequestDetail(t *testing.T) {
	client := &mockGitHubClient{
		detail: &model.PullRequestDetail{
			Number: 8,
			Title:  "fix crash",
			Body:   "Fixes the **startup** crash.",
		},
	}
	svc, _, issues, _ := newIssueFixture(client)
	issues.stored[11] = model.Issue{
		ID:          11,
		Number:      8,
		RepoOwner:   "acme",
		RepoName:    "widgets",
		PullRequest: &model.PullRequestFields{},
	}

	detail, err := svc.PullRequestDetail(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, 8, detail.Number)
	assert.Contains(t, detail.BodyHTML, "<strong>startup</strong>")
}

func TestIssueService_PullRequestDetailNotCached(t *testing.T) {
	svc, _, _, _ := newIssueFixture(&mockGitHubClient{})

	_, err := svc.PullRequestDetail(context.Background(), 999)
	assert.ErrorIs(t, err, driven.ErrPullRequestNotFound)
}

func TestIssueService_PullRequestDetailOnPlainIssue(t *testing.T) {
	svc, _, issues, _ := newIssueFixture(&mockGitHubClient{})
	issues.stored[10] = model.Issue{ID: 10, Number: 7}

	_, err := svc.PullRequestDetail(context.Background(), 10)
	assert.ErrorIs(t, err, driven.ErrPullRequestNotFound)
}

func TestIssueService_PullRequestDetailCredentialRejected(t *testing.T) {
	client := &mockGitHubClient{detailErr: driven.ErrCredentialInvalid}
	svc, creds, issues, notifier := newIssueFixture(client)
	issues.stored[11] = model.Issue{ID: 11, Number: 8, PullRequest: &model.PullRequestFields{}}

	_, err := svc.PullRequestDetail(context.Background(), 11)
	assert.ErrorIs(t, err, driven.ErrCredentialInvalid)
	assert.Equal(t, 1, creds.invalidated)
	assert.Contains(t, notifier.events, "token_invalid")
}
