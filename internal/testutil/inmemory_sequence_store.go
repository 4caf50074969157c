package testutil

import (
	"context"
	"sync"

	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// InMemorySequenceStore implements invoice.SequenceRepository with the atomic
// increment the persistence layer guarantees: two concurrent callers never
// observe the same value.
type InMemorySequenceStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{
		values: make(map[string]int64),
	}
}

func (s *InMemorySequenceStore) Next(ctx context.Context, period string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := types.GetTenantID(ctx) + ":" + period
	s.values[key]++
	return s.values[key], nil
}

// Clear resets all sequences
func (s *InMemorySequenceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]int64)
}

// FailingSequenceStore always errors, to exercise the numbering fallback path.
type FailingSequenceStore struct{}

func (FailingSequenceStore) Next(ctx context.Context, period string) (int64, error) {
	return 0, ierr.NewError("sequence source unavailable").Mark(ierr.ErrDatabase)
}
