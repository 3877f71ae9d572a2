package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wtag-io/wtag/pkg/storage"
)

// IdentityStore implements storage.IdentityStore on PostgreSQL.
type IdentityStore struct {
	db *sql.DB
}

// NewIdentityStore creates a new PostgreSQL-backed identity store
func NewIdentityStore(db *sql.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

func (s *IdentityStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (s *IdentityStore) FindUserByID(ctx context.Context, id string) (*storage.User, error) {
	return s.findUser(ctx, `
		SELECT id, username, password_hash, role, oldest_valid_issue, created_at
		FROM users WHERE id = $1
	`, id)
}

func (s *IdentityStore) FindUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	return s.findUser(ctx, `
		SELECT id, username, password_hash, role, oldest_valid_issue, created_at
		FROM users WHERE username = $1
	`, username)
}

func (s *IdentityStore) findUser(ctx context.Context, query string, arg interface{}) (*storage.User, error) {
	var u storage.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.OldestValidIssue, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts the user under a fresh id. The ON CONFLICT DO NOTHING
// clause makes the username check and the insert a single atomic statement;
// when no row comes back another account owns the username.
func (s *IdentityStore) CreateUser(ctx context.Context, user *storage.User) (*storage.User, error) {
	cp := *user
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, oldest_valid_issue)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING
		RETURNING id, created_at
	`, user.Username, user.PasswordHash, user.Role, user.OldestValidIssue).
		Scan(&cp.ID, &cp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return &cp, nil
}

func (s *IdentityStore) InsertAccessCode(ctx context.Context, code *storage.AccessCode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_codes (code, role) VALUES ($1, $2)
	`, code.Code, code.Role)
	if err != nil {
		return fmt.Errorf("inserting access code: %w", err)
	}
	return nil
}

func (s *IdentityStore) FindAccessCode(ctx context.Context, code string) (*storage.AccessCode, error) {
	var ac storage.AccessCode
	err := s.db.QueryRowContext(ctx, `
		SELECT code, role, created_at FROM access_codes WHERE code = $1
	`, code).Scan(&ac.Code, &ac.Role, &ac.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying access code: %w", err)
	}
	return &ac, nil
}

// ConsumeAccessCode deletes the code and returns what it was. DELETE with
// RETURNING guarantees exactly one concurrent redeemer wins.
func (s *IdentityStore) ConsumeAccessCode(ctx context.Context, code string) (*storage.AccessCode, error) {
	var ac storage.AccessCode
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM access_codes WHERE code = $1
		RETURNING code, role, created_at
	`, code).Scan(&ac.Code, &ac.Role, &ac.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consuming access code: %w", err)
	}
	return &ac, nil
}
