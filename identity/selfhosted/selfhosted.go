// Package selfhosted implements identity.Provider in-process: bcrypt
// password hashing, HS256 session tokens and logged one-time codes. It backs
// development and test deployments where no hosted provider is configured.
package selfhosted

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecosnap/ecosnap-server/identity"
	"github.com/ecosnap/ecosnap-server/internal/apperr"
	"github.com/ecosnap/ecosnap-server/internal/config"
)

const (
	sessionTTL = time.Hour
	codeTTL    = 10 * time.Minute
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type user struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type otpEntry struct {
	Code      string
	ExpiresAt time.Time
}

type Provider struct {
	secret []byte
	log    zerolog.Logger

	hub identity.Hub

	mu    sync.RWMutex
	users map[string]*user
	codes map[string]otpEntry
}

var _ identity.Provider = (*Provider)(nil)

// New builds a self-hosted provider. The JWT secret is deployment
// configuration; its absence is fatal.
func New(cfg config.IdentityConfig, log zerolog.Logger) (*Provider, error) {
	secret := cfg.GetJWTSecret()
	if secret == "" {
		return nil, apperr.New(apperr.KindMissingCredential, "JWT_SECRET is not set")
	}

	return &Provider{
		secret: []byte(secret),
		log:    log.With().Str("component", "identity.selfhosted").Logger(),
		users:  make(map[string]*user),
		codes:  make(map[string]otpEntry),
	}, nil
}

func (p *Provider) SignIn(_ context.Context, email, password string) (*identity.Session, error) {
	p.mu.RLock()
	u, ok := p.users[normalize(email)]
	p.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.New(apperr.KindProvider, "invalid login credentials")
	}

	return p.issueSession(u)
}

func (p *Provider) SignUp(_ context.Context, email, password, redirectTo string) (*identity.Session, error) {
	key := normalize(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindProvider, "could not hash password")
	}

	p.mu.Lock()
	if _, exists := p.users[key]; exists {
		p.mu.Unlock()
		return nil, apperr.New(apperr.KindProvider, "user already registered")
	}
	u := &user{
		ID:           uuid.New().String(),
		Email:        key,
		PasswordHash: string(hash),
		CreatedAt:    NowTimeFunc(),
	}
	p.users[key] = u
	p.mu.Unlock()

	// No email delivery here: the confirmation step is skipped and the
	// session is issued immediately.
	p.log.Info().Str("email", key).Str("redirect_to", redirectTo).Msg("account created")
	return p.issueSession(u)
}

func (p *Provider) SendCode(_ context.Context, email string) error {
	key := normalize(email)

	code, err := generateCode()
	if err != nil {
		return apperr.Wrap(err, apperr.KindProvider, "could not generate code")
	}

	p.mu.Lock()
	p.codes[key] = otpEntry{Code: code, ExpiresAt: NowTimeFunc().Add(codeTTL)}
	p.mu.Unlock()

	// Stands in for the provider's email delivery.
	p.log.Info().Str("email", key).Str("code", code).Msg("one-time code issued")
	return nil
}

func (p *Provider) VerifyCode(_ context.Context, email, code string) (*identity.Session, error) {
	key := normalize(email)

	p.mu.Lock()
	entry, ok := p.codes[key]
	if ok {
		// Single use: any attempt consumes the code.
		delete(p.codes, key)
	}
	p.mu.Unlock()

	if !ok || entry.Code != code {
		return nil, apperr.New(apperr.KindProvider, "invalid or expired code")
	}
	if NowTimeFunc().After(entry.ExpiresAt) {
		return nil, apperr.New(apperr.KindProvider, "invalid or expired code")
	}

	p.mu.Lock()
	u, exists := p.users[key]
	if !exists {
		// Passwordless sign-in creates the account on first use.
		u = &user{ID: uuid.New().String(), Email: key, CreatedAt: NowTimeFunc()}
		p.users[key] = u
	}
	p.mu.Unlock()

	return p.issueSession(u)
}

func (p *Provider) CurrentSession(_ context.Context) (*identity.Session, error) {
	sess := p.hub.Current()
	if sess == nil || sess.Expired(NowTimeFunc()) {
		return nil, identity.ErrNoSession
	}
	return sess, nil
}

func (p *Provider) SignOut(_ context.Context) error {
	p.hub.Set(nil)
	return nil
}

func (p *Provider) OnSessionChange(fn func(*identity.Session)) func() {
	return p.hub.Subscribe(fn)
}

func (p *Provider) issueSession(u *user) (*identity.Session, error) {
	now := NowTimeFunc()
	expiresAt := now.Add(sessionTTL)

	claims := jwtlib.MapClaims{
		"iss":   "ecosnap-selfhosted",
		"sub":   u.ID,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
		"jti":   uuid.New().String(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindProvider, "could not sign session token")
	}

	sess := &identity.Session{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		UserID:      u.ID,
		Email:       u.Email,
	}
	p.hub.Set(sess)
	return sess, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
