// ABOUTME: Store interface and data types for mindlens persistence
// ABOUTME: Defines Account, AnalysisEvent, Session structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUserNotFound is returned when an account doesn't exist.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when trying to create an account with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// ErrSessionNotFound is returned when a session doesn't exist or is expired.
var ErrSessionNotFound = errors.New("session not found")

// Role classifies an account's privileges.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account represents a stored identity. Usernames are unique and
// case-sensitive as stored.
type Account struct {
	Username       string
	PasswordDigest string // hex(salt)$hex(derived key), see auth package
	Role           Role
	CreatedAt      time.Time
}

// AnalysisEvent is one logged analysis request and its outcome.
// Events are immutable once written; only retention cleanup removes them.
type AnalysisEvent struct {
	ID             int64
	Actor          *string // username, nil for anonymous submissions
	InputText      string
	TranslatedText *string // nil when translation was skipped or failed
	Label          string
	Confidence     *float64
	Timestamp      time.Time
}

// ActorCount pairs a username with the number of events it produced.
type ActorCount struct {
	Username string
	Count    int64
}

// Session represents an authenticated browser session.
type Session struct {
	ID        string
	Username  string
	Role      Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store defines the interface for mindlens persistence.
type Store interface {
	// Accounts
	CreateUser(ctx context.Context, account *Account) error
	GetUser(ctx context.Context, username string) (*Account, error)
	ListUsers(ctx context.Context) ([]*Account, error)
	CountUsers(ctx context.Context) (int64, error)
	CountAdmins(ctx context.Context) (int64, error)

	// Analysis events
	AppendResult(ctx context.Context, event *AnalysisEvent) (int64, error)
	RecentResults(ctx context.Context, limit int) ([]*AnalysisEvent, error)
	CountResults(ctx context.Context) (int64, error)
	CountResultsByLabel(ctx context.Context) (map[string]int64, error)
	CountResultsByActor(ctx context.Context) ([]ActorCount, error)
	DeleteResultsBefore(ctx context.Context, cutoff time.Time, anonymousOnly bool) (int64, error)

	// Settings
	GetSetting(ctx context.Context, key, fallback string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Sessions
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
