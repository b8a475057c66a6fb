package gate_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ecosnap/ecosnap-server/gate"
	"github.com/ecosnap/ecosnap-server/identity/identityfakes"
	"github.com/ecosnap/ecosnap-server/internal/apperr"
)

func newGate(t *testing.T) (*gate.Service, *identityfakes.FakeProvider) {
	t.Helper()

	provider := identityfakes.NewFakeProvider()
	svc, err := gate.NewService(provider, "http://localhost:3000/scan", zerolog.Nop())
	require.NoError(t, err)
	return svc, provider
}

func TestEmailValidation(t *testing.T) {
	svc, provider := newGate(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		email string
	}{
		{"missing @", "janeexample.com"},
		{"empty", ""},
		{"spaces only", "   "},
		{"over 255 characters", strings.Repeat("a", 250) + "@example.com"},
		{"no local part", "@example.com"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, gate.ModePasswordLogin, gate.Credentials{
				Email:    tc.email,
				Password: "password123",
			})
			require.Error(t, err)
			require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}

	// Every rejection above happened before the provider was reached.
	require.Zero(t, provider.SignInCalls)
}

func TestPasswordValidation(t *testing.T) {
	svc, provider := newGate(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"too short", "12345", false},
		{"minimum length", "123456", true},
		{"maximum length", strings.Repeat("x", 100), true},
		{"too long", strings.Repeat("x", 101), false},
		{"empty", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := provider.SignInCalls
			_, err := svc.Submit(ctx, gate.ModePasswordLogin, gate.Credentials{
				Email:    "jane@example.com",
				Password: tc.password,
			})
			if tc.ok {
				require.NoError(t, err)
				require.Equal(t, before+1, provider.SignInCalls)
			} else {
				require.Error(t, err)
				require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
				require.Equal(t, before, provider.SignInCalls)
			}
		})
	}
}

func TestCodeValidation(t *testing.T) {
	svc, provider := newGate(t)
	ctx := context.Background()

	tests := []struct {
		name string
		code string
	}{
		{"too short", "12345"},
		{"too long", "1234567"},
		{"letters", "12a456"},
		{"empty", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, gate.ModePasswordlessVerify, gate.Credentials{
				Email:       "jane@example.com",
				OneTimeCode: tc.code,
			})
			require.Error(t, err)
			require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			require.Equal(t, "Please enter a 6-digit code", apperr.MessageOf(err))
		})
	}

	require.Zero(t, provider.VerifyCodeCalls)
}
