// Package classify turns one submitted image into a normalized waste
// classification via exactly one call to an external model. It owns no
// state; every request is independent and never retried.
package classify

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ecosnap/ecosnap-server/internal/apperr"
)

// Category is the enumerated waste category. Anything else coming back from
// the model is a contract violation and is rejected, never coerced.
type Category string

const (
	CategoryRecyclable Category = "recyclable"
	CategoryOrganic    Category = "organic"
	CategoryHazardous  Category = "hazardous"
	CategoryGeneral    Category = "general"
)

// Valid reports whether c is one of the four enumerated values. The check
// is case sensitive.
func (c Category) Valid() bool {
	switch c {
	case CategoryRecyclable, CategoryOrganic, CategoryHazardous, CategoryGeneral:
		return true
	}
	return false
}

// Result is the normalized classification. CreditsEarned is derived from
// confidence and always lies in [10, 15].
type Result struct {
	Category      Category `json:"category"`
	Confidence    int      `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	CreditsEarned int      `json:"creditsEarned"`
}

const (
	systemPrompt = `You are a waste classification expert. Analyze the image and classify the waste item.
Respond with ONLY a single JSON object in this exact format:
{"category": "recyclable" | "organic" | "hazardous" | "general", "confidence": <integer 0-100>, "reasoning": "<brief explanation>"}
Do not include any other text.`

	userInstruction = "Please classify this waste item."
)

// Service wraps an engine with input handling, response validation and
// credit derivation.
type Service struct {
	engine Engine
	log    zerolog.Logger
}

func NewService(engine Engine, log zerolog.Logger) (*Service, error) {
	if engine == nil {
		return nil, errors.New("[NewService] engine is required")
	}
	return &Service{
		engine: engine,
		log:    log.With().Str("component", "classify").Str("engine", engine.Name()).Logger(),
	}, nil
}

// Classify sends the image to the model once and validates what comes back.
// All failures are apperr values; the engine's rate-limited and
// quota-exhausted errors pass through untouched.
func (s *Service) Classify(ctx context.Context, imageBase64 string) (Result, error) {
	if strings.TrimSpace(imageBase64) == "" {
		return Result{}, apperr.New(apperr.KindMissingInput, "No image provided")
	}

	img, err := decodeImage(imageBase64)
	if err != nil {
		return Result{}, apperr.Wrap(err, apperr.KindValidation, "imageBase64 is not valid base64")
	}

	raw, err := s.engine.Complete(ctx, systemPrompt, userInstruction, img)
	if err != nil {
		return Result{}, errors.Wrap(err, "[Classify] model call")
	}

	result, err := parseModelOutput(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("rejected model output")
		return Result{}, err
	}
	return result, nil
}

// modelOutput is the single JSON object the prompt demands. Unknown fields
// are rejected: the model's output is untrusted text, not an API.
type modelOutput struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

func parseModelOutput(raw string) (Result, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return Result{}, apperr.New(apperr.KindMalformedOutput, "model returned no content")
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()

	var out modelOutput
	if err := dec.Decode(&out); err != nil {
		return Result{}, apperr.Wrap(err, apperr.KindMalformedOutput, "model did not return valid JSON")
	}

	if !out.Category.Valid() {
		return Result{}, apperr.Newf(apperr.KindInvalidCategory, "model returned unknown category %q", out.Category)
	}
	if out.Confidence < 0 || out.Confidence > 100 {
		return Result{}, apperr.Newf(apperr.KindMalformedOutput, "confidence %v outside [0,100]", out.Confidence)
	}

	confidence := int(out.Confidence)
	return Result{
		Category:      out.Category,
		Confidence:    confidence,
		Reasoning:     out.Reasoning,
		CreditsEarned: creditsFor(confidence),
	}, nil
}

// creditsFor computes 10 + floor(confidence/100 * 5).
func creditsFor(confidence int) int {
	return 10 + confidence*5/100
}

// stripCodeFences removes the ```json fence the model sometimes wraps its
// answer in.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
