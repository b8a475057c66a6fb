// Package identity abstracts the service that owns credential storage,
// session issuance and one-time codes. The gate only ever talks to the
// Provider interface; deployments pick the hosted HTTP client or the
// self-hosted in-process implementation.
package identity

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned by CurrentSession when nobody is signed in.
var ErrNoSession = errors.New("no active session")

// Session is the provider-issued authentication state. The tokens are opaque
// to everything except the auth middleware.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Provider is the contract with the identity service. All failures that the
// provider rejects (bad credentials, duplicate account, expired or wrong
// code) come back as apperr values with the provider-error kind, carrying
// the provider-supplied message.
type Provider interface {
	// SignIn exchanges email+password for a session.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignUp creates an account. redirectTo is the post-confirmation landing
	// URL. A nil session with nil error means the account was created but a
	// confirmation step is pending.
	SignUp(ctx context.Context, email, password, redirectTo string) (*Session, error)

	// SendCode emails a 6-digit one-time code.
	SendCode(ctx context.Context, email string) error

	// VerifyCode exchanges email+code for a session.
	VerifyCode(ctx context.Context, email, code string) (*Session, error)

	// CurrentSession returns the active session or ErrNoSession. Providers
	// refresh expired sessions where they can.
	CurrentSession(ctx context.Context) (*Session, error)

	// SignOut drops the active session.
	SignOut(ctx context.Context) error

	// OnSessionChange registers fn for session-change notifications and
	// returns its unsubscribe function. Notifications may fire from any
	// goroutine, including immediately after subscribing.
	OnSessionChange(fn func(*Session)) (unsubscribe func())
}
