// ABOUTME: Explicit per-request session context and its role state machine
// ABOUTME: Anonymous -> AuthenticatedUser/AuthenticatedAdmin -> Anonymous

package auth

import "github.com/mindlens/mindlens/internal/store"

// State is the authentication state of one interactive session.
type State string

const (
	StateAnonymous          State = "anonymous"
	StateAuthenticatedUser  State = "authenticated_user"
	StateAuthenticatedAdmin State = "authenticated_admin"
)

// SessionContext carries the identity and role for a single request.
// It is constructed fresh per request and never shared across connections.
type SessionContext struct {
	State    State
	Username string
}

// Anonymous returns the initial session state.
func Anonymous() *SessionContext {
	return &SessionContext{State: StateAnonymous}
}

// FromAccount returns the authenticated state for a verified account.
func FromAccount(account *store.Account) *SessionContext {
	sc := &SessionContext{Username: account.Username}
	if account.Role == store.RoleAdmin {
		sc.State = StateAuthenticatedAdmin
	} else {
		sc.State = StateAuthenticatedUser
	}
	return sc
}

// FromSession returns the authenticated state for a stored browser session.
func FromSession(session *store.Session) *SessionContext {
	sc := &SessionContext{Username: session.Username}
	if session.Role == store.RoleAdmin {
		sc.State = StateAuthenticatedAdmin
	} else {
		sc.State = StateAuthenticatedUser
	}
	return sc
}

// Logout transitions any authenticated state back to Anonymous.
func (sc *SessionContext) Logout() {
	sc.State = StateAnonymous
	sc.Username = ""
}

// Authenticated reports whether the session holds a verified identity.
func (sc *SessionContext) Authenticated() bool {
	return sc.State == StateAuthenticatedUser || sc.State == StateAuthenticatedAdmin
}

// Admin reports whether the session holds admin privileges.
func (sc *SessionContext) Admin() bool {
	return sc.State == StateAuthenticatedAdmin
}

// Actor returns the username for event attribution, or nil when anonymous.
func (sc *SessionContext) Actor() *string {
	if !sc.Authenticated() {
		return nil
	}
	name := sc.Username
	return &name
}
