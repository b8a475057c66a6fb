// Package scans records classification outcomes per user so the app can show
// scan history and a running credit total. Recording is best effort: a failed
// insert never fails the classification that produced it.
package scans

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ecosnap/ecosnap-server/classify"
)

// Record is one stored classification outcome.
type Record struct {
	ID            uuid.UUID         `json:"id"`
	UserID        string            `json:"userId"`
	Category      classify.Category `json:"category"`
	Confidence    int               `json:"confidence"`
	Reasoning     string            `json:"reasoning"`
	CreditsEarned int               `json:"creditsEarned"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// Repository stores and queries scan records.
type Repository interface {
	Insert(ctx context.Context, rec Record) error
	// ListByUser returns the user's records newest first, at most limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]Record, error)
	// TotalCredits sums CreditsEarned across all of the user's records.
	TotalCredits(ctx context.Context, userID string) (int, error)
}

// NowTimeFunc can be replaced in tests.
var NowTimeFunc = time.Now

// NewRecord builds a Record from a classification result, stamping identity
// and time.
func NewRecord(userID string, res classify.Result) Record {
	return Record{
		ID:            uuid.New(),
		UserID:        userID,
		Category:      res.Category,
		Confidence:    res.Confidence,
		Reasoning:     res.Reasoning,
		CreditsEarned: res.CreditsEarned,
		CreatedAt:     NowTimeFunc().UTC(),
	}
}
