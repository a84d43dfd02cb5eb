// ABOUTME: Account store methods over the users table
// ABOUTME: Supports creation, lookup, listing, and role counting

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateUser creates a new account. The username must not already exist;
// the UNIQUE primary key resolves concurrent registrations so exactly one
// caller wins and the rest get ErrUsernameExists.
func (s *SQLiteStore) CreateUser(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO users (username, password_digest, role, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		account.Username,
		account.PasswordDigest,
		string(account.Role),
		account.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Info("created user", "username", account.Username, "role", account.Role)
	return nil
}

// GetUser retrieves an account by username.
func (s *SQLiteStore) GetUser(ctx context.Context, username string) (*Account, error) {
	query := `
		SELECT username, password_digest, role, created_at
		FROM users
		WHERE username = ?
	`

	var account Account
	var role string
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&account.Username,
		&account.PasswordDigest,
		&role,
		&createdAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	account.Role = Role(role)
	account.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &account, nil
}

// ListUsers returns all accounts ordered by creation time.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*Account, error) {
	query := `
		SELECT username, password_digest, role, created_at
		FROM users
		ORDER BY created_at ASC, username ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []*Account
	for rows.Next() {
		var account Account
		var role string
		var createdAtStr string

		if err := rows.Scan(&account.Username, &account.PasswordDigest, &role, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		account.Role = Role(role)
		account.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return accounts, nil
}

// CountUsers returns the total number of accounts.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// CountAdmins returns the number of accounts with the admin role.
func (s *SQLiteStore) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = ?", string(RoleAdmin)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return count, nil
}
