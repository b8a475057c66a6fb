// Package gemini implements the classification engine on Google's
// generative-ai-go client, selected with MODEL_ENGINE=gemini.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ecosnap/ecosnap-server/classify"
	"github.com/ecosnap/ecosnap-server/internal/apperr"
	"github.com/ecosnap/ecosnap-server/internal/config"
)

type Engine struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

var _ classify.Engine = (*Engine)(nil)

func New(ctx context.Context, cfg config.ModelConfig, log zerolog.Logger) (*Engine, error) {
	key := cfg.GetGeminiKey()
	if key == "" {
		return nil, apperr.New(apperr.KindMissingCredential, "GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindMissingCredential, "could not create Gemini client")
	}

	return &Engine{
		client: client,
		model:  cfg.GetGeminiModel(),
		log:    log.With().Str("component", "gemini").Logger(),
	}, nil
}

func (e *Engine) Name() string { return "gemini" }

// Close releases the underlying gRPC connection.
func (e *Engine) Close() error { return e.client.Close() }

func (e *Engine) Complete(ctx context.Context, system, user string, img classify.Image) (string, error) {
	model := e.client.GenerativeModel(e.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(imageFormat(img.MIME), img.Data),
		genai.Text(user),
	)
	if err != nil {
		return "", mapGeminiError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperr.New(apperr.KindMalformedOutput, "model returned no content")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

func mapGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return apperr.New(apperr.KindRateLimited, apiErr.Message)
		case http.StatusPaymentRequired:
			return apperr.New(apperr.KindQuotaExhausted, apiErr.Message)
		default:
			return apperr.Newf(apperr.KindUpstream, "model request failed with status %d", apiErr.Code)
		}
	}
	return apperr.Wrap(err, apperr.KindUpstream, "model endpoint unreachable")
}

// imageFormat converts a MIME type to the bare format genai expects.
func imageFormat(mime string) string {
	if f, ok := strings.CutPrefix(strings.ToLower(mime), "image/"); ok && f != "" {
		return f
	}
	return "jpeg"
}
