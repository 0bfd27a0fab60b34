package model

import "time"

// Issue represents a GitHub issue or pull request cached locally. The wire
// schema's Issue/PullRequest split collapses to this one type: an Issue with a
// non-nil PullRequest extension is a pull request, one without is a plain issue.
//
// State is a free-form tag ("open", "closed", "merged", ...) rather than an
// enum so that upstream additions don't break decoding.
type Issue struct {
	ID        int64
	Number    int
	Title     string
	Author    string
	AuthorID  int64
	URL       string
	RepoOwner string
	RepoName  string
	State     string
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time

	// LastViewed and ArchivedAt are local-only state, set by explicit user
	// action and never touched by reconciliation.
	LastViewed *time.Time
	ArchivedAt *time.Time

	PullRequest *PullRequestFields
}

// PullRequestFields holds the columns that exist only for pull requests,
// stored in a separate table keyed by the issue ID.
type PullRequestFields struct {
	IsDraft        bool
	ReviewDecision string
	MergedAt       *time.Time
}

// IsPullRequest reports whether the issue carries a pull request extension.
func (i Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

// UserUpdate is one fetch result for a tracked user: the issues and pull
// requests involving them, plus the fetch-completion time that becomes the
// user's new refresh timestamp.
type UserUpdate struct {
	When   time.Time
	Issues []Issue
}
