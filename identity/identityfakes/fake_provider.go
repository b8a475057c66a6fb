package identityfakes

import (
	"context"
	"sync"

	"github.com/ecosnap/ecosnap-server/identity"
)

var _ identity.Provider = (*FakeProvider)(nil)

// FakeProvider is a hand-rolled identity.Provider for tests. Stub the Err
// fields to force failures; call counters record what reached the provider.
type FakeProvider struct {
	mu  sync.Mutex
	hub identity.Hub

	Session *identity.Session

	SignInErr     error
	SignUpErr     error
	SendCodeErr   error
	VerifyCodeErr error

	SignInCalls     int
	SignUpCalls     int
	SendCodeCalls   int
	VerifyCodeCalls int

	LastEmail      string
	LastCode       string
	LastRedirectTo string
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

func (f *FakeProvider) SignIn(_ context.Context, email, _ string) (*identity.Session, error) {
	f.mu.Lock()
	f.SignInCalls++
	f.LastEmail = email
	err := f.SignInErr
	sess := f.Session
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	f.hub.Set(sess)
	return sess, nil
}

func (f *FakeProvider) SignUp(_ context.Context, email, _, redirectTo string) (*identity.Session, error) {
	f.mu.Lock()
	f.SignUpCalls++
	f.LastEmail = email
	f.LastRedirectTo = redirectTo
	err := f.SignUpErr
	sess := f.Session
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	f.hub.Set(sess)
	return sess, nil
}

func (f *FakeProvider) SendCode(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SendCodeCalls++
	f.LastEmail = email
	return f.SendCodeErr
}

func (f *FakeProvider) VerifyCode(_ context.Context, email, code string) (*identity.Session, error) {
	f.mu.Lock()
	f.VerifyCodeCalls++
	f.LastEmail = email
	f.LastCode = code
	err := f.VerifyCodeErr
	sess := f.Session
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	f.hub.Set(sess)
	return sess, nil
}

func (f *FakeProvider) CurrentSession(context.Context) (*identity.Session, error) {
	if sess := f.hub.Current(); sess != nil {
		return sess, nil
	}
	return nil, identity.ErrNoSession
}

func (f *FakeProvider) SignOut(context.Context) error {
	f.hub.Set(nil)
	return nil
}

func (f *FakeProvider) OnSessionChange(fn func(*identity.Session)) func() {
	return f.hub.Subscribe(fn)
}

// EmitSession drives an asynchronous provider-side session change.
func (f *FakeProvider) EmitSession(s *identity.Session) {
	f.hub.Set(s)
}
