// Package scansfakes provides an in-memory scan store for tests and for
// deployments without DATABASE_URL.
package scansfakes

import (
	"context"
	"sort"
	"sync"

	"github.com/ecosnap/ecosnap-server/scans"
)

type FakeRepository struct {
	mu      sync.RWMutex
	records []scans.Record

	InsertErr error
	ListErr   error
	TotalErr  error

	InsertCallCount int
}

var _ scans.Repository = (*FakeRepository)(nil)

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{}
}

func (f *FakeRepository) Insert(_ context.Context, rec scans.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsertCallCount++
	if f.InsertErr != nil {
		return f.InsertErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *FakeRepository) ListByUser(_ context.Context, userID string, limit int) ([]scans.Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	var out []scans.Record
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeRepository) TotalCredits(_ context.Context, userID string) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.TotalErr != nil {
		return 0, f.TotalErr
	}

	total := 0
	for _, rec := range f.records {
		if rec.UserID == userID {
			total += rec.CreditsEarned
		}
	}
	return total, nil
}
