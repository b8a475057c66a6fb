package openrouter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ecosnap/ecosnap-server/classify"
	"github.com/ecosnap/ecosnap-server/classify/openrouter"
	"github.com/ecosnap/ecosnap-server/internal/apperr"
)

type testConfig struct {
	url string
}

func (c testConfig) GetModelEngine() string     { return "openrouter" }
func (c testConfig) GetOpenRouterKey() string   { return "sk-or-test" }
func (c testConfig) GetOpenRouterModel() string { return "google/gemini-2.0-flash-001" }
func (c testConfig) GetOpenRouterURL() string   { return c.url }
func (c testConfig) GetGeminiKey() string       { return "" }
func (c testConfig) GetGeminiModel() string     { return "" }

type capturedRequest struct {
	authorization string
	body          map[string]any
}

// fakeUpstream returns a chat-completions endpoint with a fixed status and
// body, recording what it was sent.
func fakeUpstream(t *testing.T, status int, responseBody string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.authorization = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newEngine(t *testing.T, srv *httptest.Server) *openrouter.Engine {
	t.Helper()
	engine, err := openrouter.New(testConfig{url: srv.URL}, zerolog.Nop())
	require.NoError(t, err)
	return engine.WithHTTPClient(srv.Client())
}

var testImage = classify.Image{Data: []byte{0xFF, 0xD8, 0xFF}, MIME: "image/jpeg"}

type missingKeyConfig struct{ testConfig }

func (missingKeyConfig) GetOpenRouterKey() string { return "" }

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := openrouter.New(missingKeyConfig{}, zerolog.Nop())
	require.Error(t, err)
	require.Equal(t, apperr.KindMissingCredential, apperr.KindOf(err))
	require.Equal(t, "OPENROUTER_API_KEY is not set", apperr.MessageOf(err))
}

func TestCompleteSuccess(t *testing.T) {
	srv, captured := fakeUpstream(t, http.StatusOK,
		`{"choices":[{"message":{"content":"{\"category\":\"organic\",\"confidence\":80,\"reasoning\":\"x\"}"}}]}`)
	engine := newEngine(t, srv)

	out, err := engine.Complete(context.Background(), "system text", "user text", testImage)
	require.NoError(t, err)
	require.Equal(t, `{"category":"organic","confidence":80,"reasoning":"x"}`, out)

	require.Equal(t, "Bearer sk-or-test", captured.authorization)
	require.Equal(t, "google/gemini-2.0-flash-001", captured.body["model"])

	messages, ok := captured.body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)

	system := messages[0].(map[string]any)
	require.Equal(t, "system", system["role"])
	require.Equal(t, "system text", system["content"])

	user := messages[1].(map[string]any)
	require.Equal(t, "user", user["role"])
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	imagePart := parts[1].(map[string]any)
	require.Equal(t, "image_url", imagePart["type"])
	url := imagePart["image_url"].(map[string]any)["url"].(string)
	require.Equal(t, "data:image/jpeg;base64,/9j/", url)
}

func TestCompleteRateLimited(t *testing.T) {
	srv, _ := fakeUpstream(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit exceeded: free-models-per-day","code":429}}`)
	engine := newEngine(t, srv)

	_, err := engine.Complete(context.Background(), "s", "u", testImage)
	require.Error(t, err)
	require.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	// The upstream message passes through word for word.
	require.Equal(t, "Rate limit exceeded: free-models-per-day", apperr.MessageOf(err))
	require.Equal(t, http.StatusTooManyRequests, apperr.HTTPStatus(err))
}

func TestCompleteQuotaExhausted(t *testing.T) {
	srv, _ := fakeUpstream(t, http.StatusPaymentRequired,
		`{"error":{"message":"Insufficient credits. Add more at openrouter.ai"}}`)
	engine := newEngine(t, srv)

	_, err := engine.Complete(context.Background(), "s", "u", testImage)
	require.Error(t, err)
	require.Equal(t, apperr.KindQuotaExhausted, apperr.KindOf(err))
	require.Equal(t, "Insufficient credits. Add more at openrouter.ai", apperr.MessageOf(err))
	require.Equal(t, http.StatusPaymentRequired, apperr.HTTPStatus(err))
}

func TestCompleteRateLimitedPlainBody(t *testing.T) {
	srv, _ := fakeUpstream(t, http.StatusTooManyRequests, "slow down")
	engine := newEngine(t, srv)

	_, err := engine.Complete(context.Background(), "s", "u", testImage)
	require.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	require.Equal(t, "slow down", apperr.MessageOf(err))
}

func TestCompleteUpstreamFailure(t *testing.T) {
	srv, _ := fakeUpstream(t, http.StatusServiceUnavailable, `{"error":{"message":"overloaded"}}`)
	engine := newEngine(t, srv)

	_, err := engine.Complete(context.Background(), "s", "u", testImage)
	require.Error(t, err)
	require.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	require.Equal(t, "model request failed with status 503", apperr.MessageOf(err))
}

func TestCompleteNoChoices(t *testing.T) {
	srv, _ := fakeUpstream(t, http.StatusOK, `{"choices":[]}`)
	engine := newEngine(t, srv)

	_, err := engine.Complete(context.Background(), "s", "u", testImage)
	require.Error(t, err)
	require.Equal(t, apperr.KindMalformedOutput, apperr.KindOf(err))
}

func TestCompleteUnreachable(t *testing.T) {
	srv, _ := fakeUpstream(t, http.StatusOK, "{}")
	engine := newEngine(t, srv)
	srv.Close()

	_, err := engine.Complete(context.Background(), "s", "u", testImage)
	require.Error(t, err)
	require.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}
