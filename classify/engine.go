package classify

import "context"

// Image is a decoded upload ready for an engine.
type Image struct {
	Data []byte
	MIME string
}

// Engine is one external multimodal model. Complete issues exactly one
// inference call and returns the model's raw text. Implementations map
// upstream 429 to the rate-limited kind and 402 to quota-exhausted, passing
// the upstream message through verbatim; any other non-success status
// becomes an upstream-error carrying the status code.
type Engine interface {
	Name() string
	Complete(ctx context.Context, system, user string, img Image) (string, error)
}
