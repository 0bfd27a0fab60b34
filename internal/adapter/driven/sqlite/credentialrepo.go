package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// Tokens are append-only: a new token supersedes the previous active one, and
// invalidation flips a flag without deleting history.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Active returns the most recently inserted valid credential.
func (r *CredentialRepo) Active(ctx context.Context) (*model.Credential, error) {
	const query = `
		SELECT id, token, user_id, invalid
		FROM tokens
		WHERE id = (SELECT MAX(id) FROM tokens WHERE invalid = 0)
	`

	var cred model.Credential
	var invalid int
	err := r.db.Reader.QueryRowContext(ctx, query).Scan(&cred.ID, &cred.Token, &cred.UserID, &invalid)
	if errors.Is(err, sql.ErrNoRows) {
		// Nothing valid. Distinguish "never set" from "all invalidated".
		var count int
		if err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&count); err != nil {
			return nil, fmt.Errorf("count tokens: %w", err)
		}
		if count > 0 {
			return nil, driven.ErrCredentialInvalid
		}
		return nil, driven.ErrCredentialMissing
	}
	if err != nil {
		return nil, fmt.Errorf("get active credential: %w", err)
	}

	cred.Invalid = invalid != 0
	return &cred, nil
}

// SetActive persists token as the new active credential owned by owner,
// creating the owner's user row and refresh-state sentinel in the same
// transaction when the user is new.
func (r *CredentialRepo) SetActive(ctx context.Context, token string, owner model.User) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set credential: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertUserTx(ctx, tx, owner); err != nil {
		return err
	}

	const insertToken = `INSERT OR REPLACE INTO tokens (token, user_id, invalid) VALUES (?, ?, 0)`
	if _, err := tx.ExecContext(ctx, insertToken, token, owner.ID); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set credential: %w", err)
	}
	return nil
}

// InvalidateActive flips the currently valid credential to invalid.
func (r *CredentialRepo) InvalidateActive(ctx context.Context) error {
	const query = `
		UPDATE tokens SET invalid = 1
		WHERE id = (SELECT MAX(id) FROM tokens WHERE invalid = 0)
	`

	if _, err := r.db.Writer.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("invalidate credential: %w", err)
	}
	return nil
}
