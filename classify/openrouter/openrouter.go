// Package openrouter implements the default classification engine against an
// OpenAI-compatible chat-completions endpoint.
package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecosnap/ecosnap-server/classify"
	"github.com/ecosnap/ecosnap-server/internal/apperr"
	"github.com/ecosnap/ecosnap-server/internal/config"
)

type Engine struct {
	apiKey string
	model  string
	url    string
	httpc  *http.Client
	log    zerolog.Logger
}

var _ classify.Engine = (*Engine)(nil)

// New builds the engine. A missing API key is a deployment error and is
// reported as such, never as a per-request failure.
func New(cfg config.ModelConfig, log zerolog.Logger) (*Engine, error) {
	key := cfg.GetOpenRouterKey()
	if key == "" {
		return nil, apperr.New(apperr.KindMissingCredential, "OPENROUTER_API_KEY is not set")
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// Multimodal inference can sit a while before the first byte.
		ResponseHeaderTimeout: 120 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   10,
	}

	return &Engine{
		apiKey: key,
		model:  cfg.GetOpenRouterModel(),
		url:    cfg.GetOpenRouterURL(),
		httpc:  &http.Client{Transport: tr},
		log:    log.With().Str("component", "openrouter").Logger(),
	}, nil
}

// WithHTTPClient overrides the internal HTTP client, primarily for tests.
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) Name() string { return "openrouter" }

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete issues the single chat-completions call. No retries: a failure
// is reported to the caller exactly as the upstream classified it.
func (e *Engine) Complete(ctx context.Context, system, user string, img classify.Image) (string, error) {
	dataURL := "data:" + img.MIME + ";base64," + base64.StdEncoding.EncodeToString(img.Data)

	payload, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: user},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
	})
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindUnknown, "encode model request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindUnknown, "build model request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	start := time.Now()
	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindUpstream, "model endpoint unreachable")
	}
	defer resp.Body.Close()
	e.log.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("model call")

	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", apperr.New(apperr.KindRateLimited, upstreamMessage(raw))
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", apperr.New(apperr.KindQuotaExhausted, upstreamMessage(raw))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", apperr.Newf(apperr.KindUpstream, "model request failed with status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", apperr.Wrap(err, apperr.KindMalformedOutput, "model response is not valid JSON")
	}
	if len(out.Choices) == 0 {
		return "", apperr.New(apperr.KindMalformedOutput, "model returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// upstreamMessage extracts the upstream error text so 429/402 bodies pass
// through to the caller verbatim.
func upstreamMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return "model request rejected"
}
