// Package gate implements the login/sign-up surface: three credential flows
// delegating to the identity provider, local validation that short-circuits
// before any network call, and the passwordless state machine.
package gate

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ecosnap/ecosnap-server/identity"
	"github.com/ecosnap/ecosnap-server/internal/apperr"
)

// Mode selects which credential flow a submission targets. Modes are
// mutually exclusive; the initial mode is password login.
type Mode string

const (
	ModePasswordLogin       Mode = "password-login"
	ModePasswordSignup      Mode = "password-signup"
	ModePasswordlessRequest Mode = "passwordless-request"
	ModePasswordlessVerify  Mode = "passwordless-verify"
)

// State is the gate's observable authentication state. The password branch
// jumps straight from unauthenticated to authenticated; only the
// passwordless branch has intermediate states.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateCodeRequest     State = "code-request"
	StateCodeEntry       State = "code-entry"
	StateAuthenticated   State = "authenticated"
)

// Credentials is the per-submission input. It is never stored; each
// submission builds one and discards it after the provider call.
type Credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password,omitempty"`
	OneTimeCode string `json:"oneTimeCode,omitempty"`
}

// Outcome is what a successful submission reports back: the resulting state,
// the single user-facing message, and the session when one was issued.
type Outcome struct {
	State   State             `json:"state"`
	Message string            `json:"message"`
	Session *identity.Session `json:"session,omitempty"`
}

// Service drives the three flows against the identity provider.
type Service struct {
	provider   identity.Provider
	landingURL string
	log        zerolog.Logger

	mu           sync.Mutex
	state        State
	pendingEmail string
}

// NewService builds a gate. landingURL is the post-signup redirect target
// (site origin + fixed landing path).
func NewService(provider identity.Provider, landingURL string, log zerolog.Logger) (*Service, error) {
	if provider == nil {
		return nil, errors.New("[NewService] identity provider is required")
	}
	return &Service{
		provider:   provider,
		landingURL: landingURL,
		log:        log.With().Str("component", "gate").Logger(),
		state:      StateUnauthenticated,
	}, nil
}

// Submit validates the credentials for the given mode and hands them to the
// provider. Validation failures and provider rejections come back as apperr
// values; the caller turns each into exactly one user-visible notification.
func (s *Service) Submit(ctx context.Context, mode Mode, creds Credentials) (Outcome, error) {
	creds.Email = strings.TrimSpace(creds.Email)

	switch mode {
	case ModePasswordLogin:
		return s.passwordLogin(ctx, creds)
	case ModePasswordSignup:
		return s.passwordSignup(ctx, creds)
	case ModePasswordlessRequest:
		return s.passwordlessRequest(ctx, creds)
	case ModePasswordlessVerify:
		return s.passwordlessVerify(ctx, creds)
	default:
		return Outcome{}, apperr.Newf(apperr.KindValidation, "unknown mode %q", mode)
	}
}

func (s *Service) passwordLogin(ctx context.Context, creds Credentials) (Outcome, error) {
	if err := validatePasswordCredentials(creds); err != nil {
		return Outcome{}, err
	}

	sess, err := s.provider.SignIn(ctx, creds.Email, creds.Password)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "[Submit] sign in")
	}

	s.setState(StateAuthenticated)
	return Outcome{State: StateAuthenticated, Message: "Signed in successfully", Session: sess}, nil
}

func (s *Service) passwordSignup(ctx context.Context, creds Credentials) (Outcome, error) {
	if err := validatePasswordCredentials(creds); err != nil {
		return Outcome{}, err
	}

	sess, err := s.provider.SignUp(ctx, creds.Email, creds.Password, s.landingURL)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "[Submit] sign up")
	}

	if sess == nil {
		// Account created but the provider wants email confirmation first.
		return Outcome{State: StateUnauthenticated, Message: "Account created. Check your email to confirm."}, nil
	}

	s.setState(StateAuthenticated)
	return Outcome{State: StateAuthenticated, Message: "Account created successfully", Session: sess}, nil
}

func (s *Service) passwordlessRequest(ctx context.Context, creds Credentials) (Outcome, error) {
	if err := validateEmail(creds.Email); err != nil {
		return Outcome{}, err
	}

	if err := s.provider.SendCode(ctx, creds.Email); err != nil {
		// Stay in code-request so the user can retry.
		s.setState(StateCodeRequest)
		return Outcome{}, errors.Wrap(err, "[Submit] send code")
	}

	s.mu.Lock()
	s.state = StateCodeEntry
	s.pendingEmail = creds.Email
	s.mu.Unlock()

	return Outcome{State: StateCodeEntry, Message: "We sent a 6-digit code to your email"}, nil
}

func (s *Service) passwordlessVerify(ctx context.Context, creds Credentials) (Outcome, error) {
	if err := validateCode(creds.OneTimeCode); err != nil {
		return Outcome{}, err
	}

	email := creds.Email
	if email == "" {
		s.mu.Lock()
		email = s.pendingEmail
		s.mu.Unlock()
	}
	if err := validateEmail(email); err != nil {
		return Outcome{}, err
	}

	sess, err := s.provider.VerifyCode(ctx, email, creds.OneTimeCode)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "[Submit] verify code")
	}

	s.setState(StateAuthenticated)
	return Outcome{State: StateAuthenticated, Message: "Signed in successfully", Session: sess}, nil
}

// ResendCode transitions the passwordless branch back to code-request and
// clears the pending code state so a fresh code can be requested.
func (s *Service) ResendCode() Outcome {
	s.mu.Lock()
	s.state = StateCodeRequest
	s.pendingEmail = ""
	s.mu.Unlock()
	return Outcome{State: StateCodeRequest, Message: "Enter your email to receive a new code"}
}

// State returns the gate's current state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PendingEmail returns the email a code was sent to, empty outside the
// code-entry state.
func (s *Service) PendingEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingEmail
}

func (s *Service) setState(st State) {
	s.mu.Lock()
	s.state = st
	if st != StateCodeEntry {
		s.pendingEmail = ""
	}
	s.mu.Unlock()
}
