package hosted_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ecosnap/ecosnap-server/identity"
	"github.com/ecosnap/ecosnap-server/identity/hosted"
	"github.com/ecosnap/ecosnap-server/internal/apperr"
)

const testAnonKey = "anon-key-1"

type testConfig struct {
	url string
}

func (c testConfig) GetIdentityURL() string     { return c.url }
func (c testConfig) GetIdentityAnonKey() string { return testAnonKey }
func (c testConfig) GetJWTSecret() string       { return "" }
func (c testConfig) GetOIDCIssuer() string      { return "" }
func (c testConfig) GetLandingPath() string     { return "/scan" }

// fakeProvider is an httptest stand-in for the hosted identity service.
type fakeProvider struct {
	mu        sync.Mutex
	lastPath  string
	lastBody  map[string]string
	apikeys   []string
	tokenFail int // when non-zero, /token responds with this status
}

func (f *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		f.record(r, nil)
		if f.tokenFail != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.tokenFail)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid login credentials",
			})
			return
		}
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"token_type":    "bearer",
			"expires_in":    3600,
			"user_id":       "user-1",
			"email":         r.Form.Get("username"),
		})
	})

	jsonBody := func(r *http.Request) map[string]string {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		return body
	}

	mux.HandleFunc("POST /signup", func(w http.ResponseWriter, r *http.Request) {
		body := jsonBody(r)
		f.record(r, body)
		if body["email"] == "taken@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]string{"msg": "User already registered"})
			return
		}
		// Confirmation pending: account without session.
		_ = json.NewEncoder(w).Encode(map[string]any{"user": map[string]string{"id": "user-2"}})
	})

	mux.HandleFunc("POST /otp", func(w http.ResponseWriter, r *http.Request) {
		f.record(r, jsonBody(r))
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /verify", func(w http.ResponseWriter, r *http.Request) {
		body := jsonBody(r)
		f.record(r, body)
		if body["token"] != "123456" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"msg": "Token has expired or is invalid"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-otp",
			"refresh_token": "rt-otp",
			"token_type":    "bearer",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-3", "email": body["email"]},
		})
	})

	return mux
}

func (f *fakeProvider) record(r *http.Request, body map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPath = r.URL.Path
	f.lastBody = body
	f.apikeys = append(f.apikeys, r.Header.Get("apikey"))
}

func setup(t *testing.T) (*hosted.Client, *fakeProvider) {
	t.Helper()

	fake := &fakeProvider{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client, err := hosted.New(testConfig{url: srv.URL}, zerolog.Nop())
	require.NoError(t, err)
	return client, fake
}

func TestNewRequiresConfiguration(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		_, err := hosted.New(testConfig{}, zerolog.Nop())
		require.Error(t, err)
		require.Equal(t, apperr.KindMissingCredential, apperr.KindOf(err))
	})
}

func TestSignIn(t *testing.T) {
	client, fake := setup(t)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		sess, err := client.SignIn(ctx, "jane@example.com", "secret123")
		require.NoError(t, err)
		require.Equal(t, "at-1", sess.AccessToken)
		require.Equal(t, "user-1", sess.UserID)
		require.Equal(t, "jane@example.com", sess.Email)

		cur, err := client.CurrentSession(ctx)
		require.NoError(t, err)
		require.Equal(t, "at-1", cur.AccessToken)
	})

	t.Run("api key attached", func(t *testing.T) {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		require.NotEmpty(t, fake.apikeys)
		for _, k := range fake.apikeys {
			require.Equal(t, testAnonKey, k)
		}
	})

	t.Run("provider rejection surfaces provider message", func(t *testing.T) {
		fake.tokenFail = http.StatusBadRequest
		defer func() { fake.tokenFail = 0 }()

		_, err := client.SignIn(ctx, "jane@example.com", "wrong")
		require.Error(t, err)
		require.Equal(t, apperr.KindProvider, apperr.KindOf(err))
		require.Contains(t, apperr.MessageOf(err), "Invalid login credentials")
	})
}

func TestSignUp(t *testing.T) {
	client, fake := setup(t)
	ctx := context.Background()

	t.Run("confirmation pending returns no session", func(t *testing.T) {
		sess, err := client.SignUp(ctx, "new@example.com", "secret123", "http://localhost:3000/scan")
		require.NoError(t, err)
		require.Nil(t, sess)

		fake.mu.Lock()
		require.Equal(t, "/signup", fake.lastPath)
		require.Equal(t, "http://localhost:3000/scan", fake.lastBody["redirect_to"])
		fake.mu.Unlock()
	})

	t.Run("duplicate account", func(t *testing.T) {
		_, err := client.SignUp(ctx, "taken@example.com", "secret123", "")
		require.Error(t, err)
		require.Equal(t, apperr.KindProvider, apperr.KindOf(err))
		require.Contains(t, apperr.MessageOf(err), "already registered")
	})
}

func TestOneTimeCode(t *testing.T) {
	client, fake := setup(t)
	ctx := context.Background()

	require.NoError(t, client.SendCode(ctx, "jane@example.com"))
	fake.mu.Lock()
	require.Equal(t, "/otp", fake.lastPath)
	fake.mu.Unlock()

	t.Run("wrong code", func(t *testing.T) {
		_, err := client.VerifyCode(ctx, "jane@example.com", "654321")
		require.Error(t, err)
		require.Equal(t, apperr.KindProvider, apperr.KindOf(err))
	})

	t.Run("correct code", func(t *testing.T) {
		sess, err := client.VerifyCode(ctx, "jane@example.com", "123456")
		require.NoError(t, err)
		require.Equal(t, "at-otp", sess.AccessToken)
		require.Equal(t, "user-3", sess.UserID)
	})
}

func TestSessionChangeNotifications(t *testing.T) {
	client, _ := setup(t)
	ctx := context.Background()

	var mu sync.Mutex
	var changes []*identity.Session
	unsub := client.OnSessionChange(func(s *identity.Session) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, s)
	})
	defer unsub()

	_, err := client.SignIn(ctx, "jane@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, client.SignOut(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	require.NotNil(t, changes[0])
	require.Nil(t, changes[1])
}
