package authprovider

import (
	"context"

	"github.com/jrsteele09/go-church-portal/sessions"
)

// EventType names an auth state change pushed by the provider.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event carries the new session, or nil for a sign out.
type Event struct {
	Type    EventType
	Session *sessions.Session
}

// Identity is the provider's view of the signed in user, taken from the ID token.
// The backend profile (users.User) is resolved separately.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// Subscription is returned by OnAuthStateChange.
type Subscription interface {
	Unsubscribe()
}

// Provider is the auth-as-a-service contract the portal depends on.
type Provider interface {
	// GetSession returns the provider's current session, or nil when signed out.
	GetSession(ctx context.Context) (*sessions.Session, error)

	// GetUser returns the identity behind the current session.
	GetUser(ctx context.Context) (*Identity, error)

	// SignIn authenticates with email and password and emits SIGNED_IN.
	SignIn(ctx context.Context, email, password string) (*sessions.Session, error)

	// SignOut ends the current session and emits SIGNED_OUT.
	SignOut(ctx context.Context) error

	// Refresh exchanges a refresh token for a new session and emits TOKEN_REFRESHED.
	Refresh(ctx context.Context, refreshToken string) (*sessions.Session, error)

	// OnAuthStateChange registers fn for every subsequent event.
	OnAuthStateChange(fn func(Event)) Subscription
}

// CodeFlowProvider can also sign in through the authorization code flow with PKCE.
type CodeFlowProvider interface {
	Provider

	// AuthCodeURL returns the issuer URL the browser is sent to.
	AuthCodeURL(state, nonce, codeVerifier string) string

	// Exchange redeems the code returned to the callback and emits SIGNED_IN.
	Exchange(ctx context.Context, code, codeVerifier, nonce string) (*sessions.Session, error)
}
