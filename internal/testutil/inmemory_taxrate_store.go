package testutil

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/quillbooks/quillbooks/internal/domain/taxrate"
	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// InMemoryTaxRateStore implements taxrate.Repository
type InMemoryTaxRateStore struct {
	mu    sync.RWMutex
	rates map[string]*taxrate.TaxRate
}

func NewInMemoryTaxRateStore() *InMemoryTaxRateStore {
	return &InMemoryTaxRateStore{
		rates: make(map[string]*taxrate.TaxRate),
	}
}

func copyTaxRate(rate *taxrate.TaxRate) *taxrate.TaxRate {
	if rate == nil {
		return nil
	}
	out := *rate
	return &out
}

func (s *InMemoryTaxRateStore) Create(ctx context.Context, rate *taxrate.TaxRate) error {
	if rate == nil {
		return ierr.NewError("tax rate cannot be nil").Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rates[rate.ID]; exists {
		return ierr.NewError("tax rate already exists").
			WithReportableDetails(map[string]any{"tax_rate_id": rate.ID}).
			Mark(ierr.ErrAlreadyExists)
	}

	s.rates[rate.ID] = copyTaxRate(rate)
	return nil
}

func (s *InMemoryTaxRateStore) Get(ctx context.Context, id string) (*taxrate.TaxRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rate, ok := s.rates[id]
	if !ok || rate.TenantID != types.GetTenantID(ctx) || rate.Status == types.StatusDeleted {
		return nil, ierr.NewError("tax rate not found").
			WithReportableDetails(map[string]any{"tax_rate_id": id}).
			Mark(ierr.ErrNotFound)
	}

	return copyTaxRate(rate), nil
}

func (s *InMemoryTaxRateStore) Update(ctx context.Context, rate *taxrate.TaxRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rates[rate.ID]
	if !ok || stored.TenantID != types.GetTenantID(ctx) {
		return ierr.NewError("tax rate not found").
			WithReportableDetails(map[string]any{"tax_rate_id": rate.ID}).
			Mark(ierr.ErrNotFound)
	}

	s.rates[rate.ID] = copyTaxRate(rate)
	return nil
}

func (s *InMemoryTaxRateStore) List(ctx context.Context) ([]*taxrate.TaxRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*taxrate.TaxRate
	for _, rate := range s.rates {
		if rate.TenantID == types.GetTenantID(ctx) && rate.Status != types.StatusDeleted {
			out = append(out, copyTaxRate(rate))
		}
	}
	return out, nil
}

func (s *InMemoryTaxRateStore) ListByIDs(ctx context.Context, ids []string) ([]*taxrate.TaxRate, error) {
	rates, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Filter(rates, func(rate *taxrate.TaxRate, _ int) bool {
		return lo.Contains(ids, rate.ID)
	}), nil
}

func (s *InMemoryTaxRateStore) ListDefault(ctx context.Context) ([]*taxrate.TaxRate, error) {
	rates, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Filter(rates, func(rate *taxrate.TaxRate, _ int) bool {
		return rate.IsDefault
	}), nil
}

// Clear removes all tax rates from the store
func (s *InMemoryTaxRateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = make(map[string]*taxrate.TaxRate)
}
