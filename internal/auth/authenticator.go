// ABOUTME: Credential verification and account registration against the store
// ABOUTME: Owns signup rules, admin gating, and default admin bootstrap

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/mindlens/mindlens/internal/store"
)

// Username validation regex: alphanumeric + underscores, 3-32 characters
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,31}$`)

// MinPasswordLength is the minimum accepted password length for signup.
const MinPasswordLength = 8

var (
	// ErrInvalidCredentials is returned when the username or password is wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAdminRequired is returned when a non-admin account attempts an
	// admin-gated login. The session stays anonymous.
	ErrAdminRequired = errors.New("admin account required")

	// ErrInvalidUsername is returned when a signup username fails validation.
	ErrInvalidUsername = errors.New("username must start with a letter and contain 3-32 letters, digits, or underscores")

	// ErrPasswordTooShort is returned when a signup password is too short.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

	// ErrUsernameTaken is returned when the requested username already exists.
	ErrUsernameTaken = errors.New("username already taken")
)

// Authenticator proves or refutes claimed identities against the account store.
type Authenticator struct {
	store  store.Store
	logger *slog.Logger
}

// New creates an Authenticator backed by the given store.
func New(st store.Store) *Authenticator {
	return &Authenticator{
		store:  st,
		logger: slog.Default().With("component", "auth"),
	}
}

// Register creates a new account with the user role.
// Returns ErrUsernameTaken if the username already exists; the uniqueness
// check lives in the store's primary key, not here, so concurrent signups
// for the same name resolve to exactly one winner.
func (a *Authenticator) Register(ctx context.Context, username, password string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	digest, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	account := &store.Account{
		Username:       username,
		PasswordDigest: digest,
		Role:           store.RoleUser,
		CreatedAt:      time.Now(),
	}

	if err := a.store.CreateUser(ctx, account); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("creating account: %w", err)
	}

	a.logger.Info("account registered", "username", username)
	return nil
}

// dummyDigest is a digest of an unguessable throwaway password, verified
// against unknown usernames so lookup misses cost the same as mismatches.
const dummyDigest = "8e0ef7dd51a1cc7c7fdcd9eb5f8c87fe$c5a2e6d1f0b94ddc6a3e1cf7b8d90241a6e3f1d2c4b5a69788f0e1d2c3b4a596"

// Authenticate looks up the account and verifies the password against the
// stored digest. Returns ErrInvalidCredentials on any mismatch; the caller
// cannot distinguish a missing user from a wrong password.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*store.Account, error) {
	account, err := a.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			VerifyPassword(dummyDigest, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if !VerifyPassword(account.PasswordDigest, password) {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// AuthenticateAdmin is Authenticate restricted to admin accounts.
// A valid non-admin login fails with ErrAdminRequired rather than silently
// downgrading to a user session.
func (a *Authenticator) AuthenticateAdmin(ctx context.Context, username, password string) (*store.Account, error) {
	account, err := a.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if account.Role != store.RoleAdmin {
		a.logger.Warn("admin login rejected for non-admin account", "username", username)
		return nil, ErrAdminRequired
	}

	return account, nil
}

// BootstrapAdmin provisions the default admin account if no admin exists.
// Idempotent: repeated calls after an admin exists do nothing. Returns true
// when an account was created.
func (a *Authenticator) BootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	admins, err := a.store.CountAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("counting admins: %w", err)
	}
	if admins > 0 {
		return false, nil
	}

	digest, err := HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}

	account := &store.Account{
		Username:       username,
		PasswordDigest: digest,
		Role:           store.RoleAdmin,
		CreatedAt:      time.Now(),
	}

	if err := a.store.CreateUser(ctx, account); err != nil {
		// A concurrent bootstrap already created it.
		if errors.Is(err, store.ErrUsernameExists) {
			return false, nil
		}
		return false, fmt.Errorf("creating admin account: %w", err)
	}

	a.logger.Info("bootstrapped default admin", "username", username)
	return true, nil
}
