package application_test

import (
	"context"
	"time"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockCredentialStore struct {
	cred        *model.Credential
	activeErr   error
	setTokens   []string
	setOwners   []model.User
	invalidated int
}

func (m *mockCredentialStore) Active(_ context.Context) (*model.Credential, error) {
	if m.activeErr != nil {
		return nil, m.activeErr
	}
	return m.cred, nil
}

func (m *mockCredentialStore) SetActive(_ context.Context, token string, owner model.User) error {
	m.setTokens = append(m.setTokens, token)
	m.setOwners = append(m.setOwners, owner)
	m.cred = &model.Credential{Token: token, UserID: owner.ID}
	m.activeErr = nil
	return nil
}

func (m *mockCredentialStore) InvalidateActive(_ context.Context) error {
	m.invalidated++
	m.cred = nil
	m.activeErr = driven.ErrCredentialInvalid
	return nil
}

type mockUserStore struct {
	upserts     []model.User
	byLogin     map[string]model.User
	mainUser    *model.User
	tracked     []model.User
	stale       []model.User
	refreshedAt map[int64]time.Time
}

func (m *mockUserStore) Upsert(_ context.Context, user model.User) error {
	m.upserts = append(m.upserts, user)
	return nil
}

func (m *mockUserStore) GetByLogin(_ context.Context, login string) (*model.User, error) {
	user, ok := m.byLogin[login]
	if !ok {
		return nil, driven.ErrUserNotFound
	}
	return &user, nil
}

func (m *mockUserStore) MainUser(_ context.Context) (*model.User, error) {
	if m.mainUser == nil {
		return nil, driven.ErrUserNotFound
	}
	return m.mainUser, nil
}

func (m *mockUserStore) ListTracked(_ context.Context) ([]model.User, error) {
	return m.tracked, nil
}

func (m *mockUserStore) ListStale(_ context.Context, _ time.Time) ([]model.User, error) {
	return m.stale, nil
}

func (m *mockUserStore) RefreshedAt(_ context.Context, userID int64) (time.Time, error) {
	at, ok := m.refreshedAt[userID]
	if !ok {
		return time.Time{}, driven.ErrNeverRefreshed
	}
	return at, nil
}

type reconcileCall struct {
	UserID int64
	When   time.Time
	Issues []model.Issue
}

type mockIssueStore struct {
	reconciles   []reconcileCall
	reconcileErr error
	stored       map[int64]model.Issue
	authored     []model.Issue
	involved     []model.Issue
	viewed       [][]int64
	archived     [][]int64
}

func (m *mockIssueStore) Reconcile(_ context.Context, userID int64, when time.Time, issues []model.Issue) error {
	if m.reconcileErr != nil {
		return m.reconcileErr
	}
	m.reconciles = append(m.reconciles, reconcileCall{UserID: userID, When: when, Issues: issues})
	return nil
}

func (m *mockIssueStore) Get(_ context.Context, id int64) (*model.Issue, error) {
	issue, ok := m.stored[id]
	if !ok {
		return nil, nil
	}
	return &issue, nil
}

func (m *mockIssueStore) ListAuthoredBy(_ context.Context, _ string) ([]model.Issue, error) {
	return m.authored, nil
}

func (m *mockIssueStore) ListInvolving(_ context.Context, _ string) ([]model.Issue, error) {
	return m.involved, nil
}

func (m *mockIssueStore) MarkViewed(_ context.Context, ids []int64) error {
	m.viewed = append(m.viewed, ids)
	return nil
}

func (m *mockIssueStore) Archive(_ context.Context, ids []int64) error {
	m.archived = append(m.archived, ids)
	return nil
}

type searchCall struct {
	Login string
	Since *time.Time
}

type mockGitHubClient struct {
	whoamiUser  *model.User
	whoamiErr   error
	users       map[string]model.User
	userErr     error
	searchCalls []searchCall
	search      func(login string, since *time.Time) (*model.UserUpdate, error)
	detail      *model.PullRequestDetail
	detailErr   error
}

func (m *mockGitHubClient) Whoami(_ context.Context) (*model.User, error) {
	if m.whoamiErr != nil {
		return nil, m.whoamiErr
	}
	return m.whoamiUser, nil
}

func (m *mockGitHubClient) GetUser(_ context.Context, login string) (*model.User, error) {
	if m.userErr != nil {
		return nil, m.userErr
	}
	user, ok := m.users[login]
	if !ok {
		return nil, driven.ErrUserNotFound
	}
	return &user, nil
}

func (m *mockGitHubClient) SearchUserIssues(_ context.Context, login string, since *time.Time) (*model.UserUpdate, error) {
	m.searchCalls = append(m.searchCalls, searchCall{Login: login, Since: since})
	if m.search != nil {
		return m.search(login, since)
	}
	return &model.UserUpdate{When: time.Now()}, nil
}

func (m *mockGitHubClient) PullRequestDetail(_ context.Context, _, _ string, _ int) (*model.PullRequestDetail, error) {
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	return m.detail, nil
}

func staticFactory(client driven.GitHubClient) driven.ClientFactory {
	return func(_ string) driven.GitHubClient { return client }
}

type mockNotifier struct {
	events []string
	ticks  []int
}

func (m *mockNotifier) TokenSet(_ model.User)    { m.events = append(m.events, "token_set") }
func (m *mockNotifier) TokenInvalid()            { m.events = append(m.events, "token_invalid") }
func (m *mockNotifier) UserUpdated(_ model.User) { m.events = append(m.events, "user_update") }
func (m *mockNotifier) UserDataUpdated(_ string) { m.events = append(m.events, "user_data_update") }

func (m *mockNotifier) Tick(n int) {
	m.events = append(m.events, "iteration")
	m.ticks = append(m.ticks, n)
}
