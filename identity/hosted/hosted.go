// Package hosted implements identity.Provider against a hosted identity
// service speaking the OAuth2 password grant plus JSON endpoints for
// signup and one-time codes.
package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/ecosnap/ecosnap-server/identity"
	"github.com/ecosnap/ecosnap-server/internal/apperr"
	"github.com/ecosnap/ecosnap-server/internal/config"
)

type Client struct {
	baseURL string
	anonKey string
	httpc   *http.Client
	oauth   *oauth2.Config
	log     zerolog.Logger

	hub identity.Hub

	mu      sync.Mutex
	lastTok *oauth2.Token
}

var _ identity.Provider = (*Client)(nil)

// apikeyTransport adds the provider's public API key to every request,
// including the token requests x/oauth2 issues itself.
type apikeyTransport struct {
	key  string
	next http.RoundTripper
}

func (t *apikeyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	clone := r.Clone(r.Context())
	clone.Header.Set("apikey", t.key)
	return t.next.RoundTrip(clone)
}

// New builds a hosted provider client. URL and anon key are deployment
// configuration; their absence is fatal, not a per-request error.
func New(cfg config.IdentityConfig, log zerolog.Logger) (*Client, error) {
	baseURL := strings.TrimSuffix(cfg.GetIdentityURL(), "/")
	if baseURL == "" {
		return nil, apperr.New(apperr.KindMissingCredential, "IDENTITY_URL is not set")
	}
	anonKey := cfg.GetIdentityAnonKey()
	if anonKey == "" {
		return nil, apperr.New(apperr.KindMissingCredential, "IDENTITY_ANON_KEY is not set")
	}

	httpc := &http.Client{
		Transport: &apikeyTransport{key: anonKey, next: http.DefaultTransport},
	}

	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		httpc:   httpc,
		oauth: &oauth2.Config{
			ClientID: anonKey,
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		log: log.With().Str("component", "identity.hosted").Logger(),
	}, nil
}

// oauthCtx routes x/oauth2's internal HTTP through our keyed client.
func (c *Client) oauthCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpc)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	tok, err := c.oauth.PasswordCredentialsToken(c.oauthCtx(ctx), email, password)
	if err != nil {
		return nil, providerErr(err, "invalid login credentials")
	}
	sess := c.sessionFromToken(tok, email)
	c.store(tok, sess)
	return sess, nil
}

type signupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

type tokenEnvelope struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (c *Client) SignUp(ctx context.Context, email, password, redirectTo string) (*identity.Session, error) {
	var env tokenEnvelope
	err := c.postJSON(ctx, "/signup", signupRequest{Email: email, Password: password, RedirectTo: redirectTo}, &env)
	if err != nil {
		return nil, err
	}

	// Providers with email confirmation enabled create the account but
	// withhold the session until the link is clicked.
	if env.AccessToken == "" {
		return nil, nil
	}

	sess := sessionFromEnvelope(env, email)
	c.store(envelopeToken(env), sess)
	return sess, nil
}

func (c *Client) SendCode(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/otp", map[string]string{"email": email}, nil)
}

func (c *Client) VerifyCode(ctx context.Context, email, code string) (*identity.Session, error) {
	var env tokenEnvelope
	req := map[string]string{"email": email, "token": code, "type": "email"}
	if err := c.postJSON(ctx, "/verify", req, &env); err != nil {
		return nil, err
	}
	if env.AccessToken == "" {
		return nil, apperr.New(apperr.KindProvider, "invalid or expired code")
	}
	sess := sessionFromEnvelope(env, email)
	c.store(envelopeToken(env), sess)
	return sess, nil
}

func (c *Client) CurrentSession(ctx context.Context) (*identity.Session, error) {
	c.mu.Lock()
	last := c.lastTok
	c.mu.Unlock()

	if last == nil {
		return nil, identity.ErrNoSession
	}

	// TokenSource refreshes transparently when the access token is stale.
	tok, err := c.oauth.TokenSource(c.oauthCtx(ctx), last).Token()
	if err != nil {
		c.store(nil, nil)
		return nil, identity.ErrNoSession
	}

	sess := c.sessionFromToken(tok, "")
	if tok.AccessToken != last.AccessToken {
		c.store(tok, sess)
	}
	return sess, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	last := c.lastTok
	c.mu.Unlock()

	if last != nil {
		// Best effort; the local session is dropped regardless.
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+last.AccessToken)
			if resp, err := c.httpc.Do(req); err == nil {
				_ = resp.Body.Close()
			} else {
				c.log.Warn().Err(err).Msg("provider logout failed")
			}
		}
	}

	c.store(nil, nil)
	return nil
}

func (c *Client) OnSessionChange(fn func(*identity.Session)) func() {
	return c.hub.Subscribe(fn)
}

func (c *Client) store(tok *oauth2.Token, sess *identity.Session) {
	c.mu.Lock()
	c.lastTok = tok
	c.mu.Unlock()
	c.hub.Set(sess)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperr.Wrap(err, apperr.KindUnknown, "encode provider request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperr.Wrap(err, apperr.KindUnknown, "build provider request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return apperr.Wrap(err, apperr.KindProvider, "identity provider unreachable")
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.New(apperr.KindProvider, providerMessage(raw))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperr.Wrap(err, apperr.KindProvider, "malformed provider response")
		}
	}
	return nil
}

// providerMessage digs the human-readable message out of a provider error
// body, falling back to a generic one.
func providerMessage(raw []byte) string {
	var body struct {
		Msg         string `json:"msg"`
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Msg != "":
			return body.Msg
		case body.Description != "":
			return body.Description
		case body.Error != "":
			return body.Error
		}
	}
	return "identity provider rejected the request"
}

func providerErr(err error, fallback string) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		if msg := providerMessage(retrieve.Body); msg != "identity provider rejected the request" {
			return apperr.New(apperr.KindProvider, msg)
		}
		return apperr.New(apperr.KindProvider, fallback)
	}
	return apperr.Wrap(err, apperr.KindProvider, fallback)
}

func (c *Client) sessionFromToken(tok *oauth2.Token, fallbackEmail string) *identity.Session {
	sess := &identity.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
		Email:        fallbackEmail,
	}
	if v, ok := tok.Extra("user_id").(string); ok && v != "" {
		sess.UserID = v
	}
	if v, ok := tok.Extra("email").(string); ok && v != "" {
		sess.Email = v
	}
	return sess
}

func envelopeToken(env tokenEnvelope) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  env.AccessToken,
		RefreshToken: env.RefreshToken,
		TokenType:    env.TokenType,
		Expiry:       time.Now().Add(time.Duration(env.ExpiresIn) * time.Second),
	}
}

func sessionFromEnvelope(env tokenEnvelope, fallbackEmail string) *identity.Session {
	sess := &identity.Session{
		AccessToken:  env.AccessToken,
		RefreshToken: env.RefreshToken,
		TokenType:    env.TokenType,
		ExpiresAt:    time.Now().Add(time.Duration(env.ExpiresIn) * time.Second),
		UserID:       env.User.ID,
		Email:        env.User.Email,
	}
	if sess.Email == "" {
		sess.Email = fallbackEmail
	}
	return sess
}
