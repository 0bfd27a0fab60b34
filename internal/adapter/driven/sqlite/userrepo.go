package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// executor is satisfied by *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// upsertUserTx writes the user row and, for new users, the never-refreshed
// sentinel. Shared with CredentialRepo so token-set stays one transaction.
func upsertUserTx(ctx context.Context, ex executor, user model.User) error {
	const upsert = `
		INSERT INTO users (id, login, name, avatar_url) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			login = excluded.login,
			name = excluded.name,
			avatar_url = excluded.avatar_url
	`
	if _, err := ex.ExecContext(ctx, upsert, user.ID, user.Login, user.Name, user.AvatarURL); err != nil {
		return fmt.Errorf("upsert user %q: %w", user.Login, err)
	}

	const sentinel = `INSERT OR IGNORE INTO user_refresh (id, refresh_at) VALUES (?, NULL)`
	if _, err := ex.ExecContext(ctx, sentinel, user.ID); err != nil {
		return fmt.Errorf("insert refresh sentinel for %q: %w", user.Login, err)
	}

	return nil
}

// Upsert inserts or updates a tracked user together with its refresh sentinel.
func (r *UserRepo) Upsert(ctx context.Context, user model.User) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertUserTx(ctx, tx, user); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert user: %w", err)
	}
	return nil
}

// GetByLogin returns the tracked user with the given login.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	const query = `SELECT id, login, name, avatar_url FROM users WHERE login = ?`

	var user model.User
	err := r.db.Reader.QueryRowContext(ctx, query, login).
		Scan(&user.ID, &user.Login, &user.Name, &user.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", login, err)
	}

	return &user, nil
}

// MainUser returns the user owning the active credential.
func (r *UserRepo) MainUser(ctx context.Context) (*model.User, error) {
	const query = `
		SELECT u.id, u.login, u.name, u.avatar_url
		FROM users u
		JOIN tokens t ON t.user_id = u.id
		WHERE t.id = (SELECT MAX(id) FROM tokens WHERE invalid = 0)
	`

	var user model.User
	err := r.db.Reader.QueryRowContext(ctx, query).
		Scan(&user.ID, &user.Login, &user.Name, &user.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get main user: %w", err)
	}

	return &user, nil
}

// ListTracked returns all tracked users ordered by login.
func (r *UserRepo) ListTracked(ctx context.Context) ([]model.User, error) {
	const query = `SELECT id, login, name, avatar_url FROM users ORDER BY login`
	return r.queryUsers(ctx, query)
}

// ListStale returns tracked users whose last refresh is absent or before cutoff.
func (r *UserRepo) ListStale(ctx context.Context, cutoff time.Time) ([]model.User, error) {
	const query = `
		SELECT u.id, u.login, u.name, u.avatar_url
		FROM users u
		JOIN user_refresh r ON r.id = u.id
		WHERE r.refresh_at IS NULL OR r.refresh_at <= 0 OR r.refresh_at < ?
		ORDER BY u.login
	`
	return r.queryUsers(ctx, query, cutoff.UTC().Unix())
}

// RefreshedAt returns the time of the user's last successful refresh.
func (r *UserRepo) RefreshedAt(ctx context.Context, userID int64) (time.Time, error) {
	const query = `SELECT refresh_at FROM user_refresh WHERE id = ?`

	var refreshAt sql.NullInt64
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&refreshAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, driven.ErrUserNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get refresh state for user %d: %w", userID, err)
	}

	if !refreshAt.Valid || refreshAt.Int64 <= 0 {
		return time.Time{}, driven.ErrNeverRefreshed
	}
	return time.Unix(refreshAt.Int64, 0).UTC(), nil
}

func (r *UserRepo) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Login, &user.Name, &user.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}
