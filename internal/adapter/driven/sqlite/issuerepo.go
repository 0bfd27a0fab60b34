package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IssueStore = (*IssueRepo)(nil)

// IssueRepo is the SQLite implementation of the IssueStore port.
type IssueRepo struct {
	db *DB
}

// NewIssueRepo creates a new IssueRepo backed by the given DB.
func NewIssueRepo(db *DB) *IssueRepo {
	return &IssueRepo{db: db}
}

const issueColumns = `
	i.id, i.number, i.title, i.author, i.author_id, i.url,
	i.repo_owner, i.repo_name, i.state, i.created_at, i.updated_at,
	i.closed_at, i.last_viewed, i.archived_at, i.is_pull_request,
	p.is_draft, p.review_decision, p.merged_at
`

// Reconcile merges a fetched batch into the cache for one user and advances
// the user's refresh timestamp, all in a single transaction. Conflicting rows
// are updated on their remote fields only; last_viewed and archived_at are
// local state and survive re-reconciliation.
func (r *IssueRepo) Reconcile(ctx context.Context, userID int64, when time.Time, issues []model.Issue) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reconcile: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsertIssue = `
		INSERT INTO issues (
			id, number, title, author, author_id, url, repo_owner, repo_name,
			state, created_at, updated_at, closed_at, is_pull_request
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			title = excluded.title,
			author = excluded.author,
			author_id = excluded.author_id,
			url = excluded.url,
			repo_owner = excluded.repo_owner,
			repo_name = excluded.repo_name,
			state = excluded.state,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			closed_at = excluded.closed_at,
			is_pull_request = excluded.is_pull_request
	`

	const upsertPR = `
		INSERT INTO pull_requests (id, is_draft, review_decision, merged_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_draft = excluded.is_draft,
			review_decision = excluded.review_decision,
			merged_at = excluded.merged_at
	`

	const linkUser = `INSERT OR IGNORE INTO user_issues (user_id, issue_id) VALUES (?, ?)`

	for _, issue := range issues {
		isPR := 0
		if issue.IsPullRequest() {
			isPR = 1
		}

		_, err := tx.ExecContext(ctx, upsertIssue,
			issue.ID, issue.Number, issue.Title, issue.Author, issue.AuthorID,
			issue.URL, issue.RepoOwner, issue.RepoName, issue.State,
			issue.CreatedAt.UTC().Unix(), issue.UpdatedAt.UTC().Unix(),
			unixOrNil(issue.ClosedAt), isPR,
		)
		if err != nil {
			return fmt.Errorf("upsert issue %d: %w", issue.ID, err)
		}

		if pr := issue.PullRequest; pr != nil {
			_, err := tx.ExecContext(ctx, upsertPR,
				issue.ID, boolToInt(pr.IsDraft), pr.ReviewDecision, unixOrNil(pr.MergedAt),
			)
			if err != nil {
				return fmt.Errorf("upsert pull request %d: %w", issue.ID, err)
			}
		}

		if _, err := tx.ExecContext(ctx, linkUser, userID, issue.ID); err != nil {
			return fmt.Errorf("link issue %d to user %d: %w", issue.ID, userID, err)
		}
	}

	const advance = `UPDATE user_refresh SET refresh_at = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, advance, when.UTC().Unix(), userID)
	if err != nil {
		return fmt.Errorf("advance refresh state for user %d: %w", userID, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("advance refresh state for user %d: %w", userID, driven.ErrUserNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reconcile: %w", err)
	}
	return nil
}

// Get returns a cached issue by ID regardless of archival state, or nil, nil
// when it does not exist.
func (r *IssueRepo) Get(ctx context.Context, id int64) (*model.Issue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM issues i LEFT JOIN pull_requests p ON p.id = i.id
		WHERE i.id = ?
	`

	issue, err := scanIssue(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get issue %d: %w", id, err)
	}

	return issue, nil
}

// ListAuthoredBy returns non-archived issues authored by login, most recently
// updated first.
func (r *IssueRepo) ListAuthoredBy(ctx context.Context, login string) ([]model.Issue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM issues i LEFT JOIN pull_requests p ON p.id = i.id
		WHERE i.author = ? AND i.archived_at IS NULL
		ORDER BY i.updated_at DESC
	`

	return r.queryIssues(ctx, query, login)
}

// ListInvolving returns non-archived issues linked to login's feed but not
// authored by them, most recently updated first.
func (r *IssueRepo) ListInvolving(ctx context.Context, login string) ([]model.Issue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM issues i
		JOIN user_issues ui ON ui.issue_id = i.id
		JOIN users u ON u.id = ui.user_id
		LEFT JOIN pull_requests p ON p.id = i.id
		WHERE u.login = ? AND i.author != ? AND i.archived_at IS NULL
		ORDER BY i.updated_at DESC
	`

	return r.queryIssues(ctx, query, login, login)
}

// MarkViewed stamps the given issues as viewed now.
func (r *IssueRepo) MarkViewed(ctx context.Context, ids []int64) error {
	return r.stamp(ctx, "last_viewed", ids)
}

// Archive stamps the given issues as archived now, removing them from feed
// queries while leaving the rows intact.
func (r *IssueRepo) Archive(ctx context.Context, ids []int64) error {
	return r.stamp(ctx, "archived_at", ids)
}

func (r *IssueRepo) stamp(ctx context.Context, column string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf("UPDATE issues SET %s = ? WHERE id IN (%s)", column, placeholders)

	args := make([]any, 0, len(ids)+1)
	args = append(args, time.Now().UTC().Unix())
	for _, id := range ids {
		args = append(args, id)
	}

	if _, err := r.db.Writer.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set %s on %d issues: %w", column, len(ids), err)
	}
	return nil
}

func (r *IssueRepo) queryIssues(ctx context.Context, query string, args ...any) ([]model.Issue, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	var issues []model.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, *issue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}

	return issues, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(s scanner) (*model.Issue, error) {
	var issue model.Issue
	var createdAt, updatedAt int64
	var closedAt, lastViewed, archivedAt, mergedAt sql.NullInt64
	var isPR int
	var isDraft sql.NullInt64
	var reviewDecision sql.NullString

	err := s.Scan(
		&issue.ID, &issue.Number, &issue.Title, &issue.Author, &issue.AuthorID,
		&issue.URL, &issue.RepoOwner, &issue.RepoName, &issue.State,
		&createdAt, &updatedAt, &closedAt, &lastViewed, &archivedAt, &isPR,
		&isDraft, &reviewDecision, &mergedAt,
	)
	if err != nil {
		return nil, err
	}

	issue.CreatedAt = time.Unix(createdAt, 0).UTC()
	issue.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	issue.ClosedAt = timeFromUnix(closedAt)
	issue.LastViewed = timeFromUnix(lastViewed)
	issue.ArchivedAt = timeFromUnix(archivedAt)

	if isPR != 0 {
		issue.PullRequest = &model.PullRequestFields{
			IsDraft:        isDraft.Valid && isDraft.Int64 != 0,
			ReviewDecision: reviewDecision.String,
			MergedAt:       timeFromUnix(mergedAt),
		}
	}

	return &issue, nil
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Unix()
}

func timeFromUnix(v sql.NullInt64) *time.Time {
	if !v.Valid || v.Int64 <= 0 {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
