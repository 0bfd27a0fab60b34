package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// IssueService serves the cached feeds and the live pull request deep view.
type IssueService struct {
	issues   driven.IssueStore
	creds    driven.CredentialStore
	factory  driven.ClientFactory
	notifier driven.Notifier
}

// NewIssueService creates an IssueService.
func NewIssueService(
	issues driven.IssueStore,
	creds driven.CredentialStore,
	factory driven.ClientFactory,
	notifier driven.Notifier,
) *IssueService {
	return &IssueService{
		issues:   issues,
		creds:    creds,
		factory:  factory,
		notifier: notifier,
	}
}

// Authored returns login's non-archived authored feed from the cache.
func (s *IssueService) Authored(ctx context.Context, login string) ([]model.Issue, error) {
	return s.issues.ListAuthoredBy(ctx, login)
}

// Involved returns login's non-archived involvement feed from the cache,
// excluding items they authored.
func (s *IssueService) Involved(ctx context.Context, login string) ([]model.Issue, error) {
	return s.issues.ListInvolving(ctx, login)
}

// MarkViewed stamps the given issues as viewed now.
func (s *IssueService) MarkViewed(ctx context.Context, ids []int64) error {
	return s.issues.MarkViewed(ctx, ids)
}

// Archive hides the given issues from the feeds.
func (s *IssueService) Archive(ctx context.Context, ids []int64) error {
	return s.issues.Archive(ctx, ids)
}

// PullRequestDetail fetches the live deep view of a cached pull request by its
// cache ID, with the body rendered to sanitized HTML. Asking for an ID that is
// not cached, or that is a plain issue, returns ErrPullRequestNotFound.
func (s *IssueService) PullRequestDetail(ctx context.Context, id int64) (*model.PullRequestDetail, error) {
	issue, err := s.issues.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("pull request %d: %w", id, err)
	}
	if issue == nil || !issue.IsPullRequest() {
		return nil, fmt.Errorf("pull request %d: %w", id, driven.ErrPullRequestNotFound)
	}

	cred, err := s.creds.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("pull request %d: %w", id, err)
	}

	detail, err := s.factory(cred.Token).PullRequestDetail(ctx, issue.RepoOwner, issue.RepoName, issue.Number)
	if err != nil {
		if errors.Is(err, driven.ErrCredentialInvalid) {
			if ierr := s.creds.InvalidateActive(ctx); ierr != nil {
				slog.Error("credential invalidation failed", "error", ierr)
			}
			s.notifier.TokenInvalid()
		}
		return nil, fmt.Errorf("pull request %d: %w", id, err)
	}

	detail.BodyHTML = RenderMarkdown(detail.Body)

	return detail, nil
}
