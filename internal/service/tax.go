package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/quillbooks/quillbooks/internal/cache"
	"github.com/quillbooks/quillbooks/internal/domain/invoice"
	"github.com/quillbooks/quillbooks/internal/domain/taxrate"
	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// ResolvedTaxSelection is the output of resolving a tax selection: the single
// effective percentage plus the frozen per-rate snapshot that gets attached to
// the invoice for audit and reproducibility.
type ResolvedTaxSelection struct {
	EffectiveRate decimal.Decimal          `json:"effective_rate"`
	Applied       []invoice.AppliedTaxRate `json:"applied"`
}

type TaxService interface {
	// ResolveSelection turns an ordered set of tax rate ids into one
	// effective percentage (arithmetic sum, not compounded). An empty
	// selection resolves to a zero rate. Resolution is idempotent and
	// order-independent.
	ResolveSelection(ctx context.Context, taxRateIDs []string) (*ResolvedTaxSelection, error)

	// DefaultSelection returns the ids of the tenant's default tax rates.
	DefaultSelection(ctx context.Context) ([]string, error)
}

type taxService struct {
	ServiceParams
}

func NewTaxService(params ServiceParams) TaxService {
	return &taxService{ServiceParams: params}
}

func (s *taxService) ResolveSelection(ctx context.Context, taxRateIDs []string) (*ResolvedTaxSelection, error) {
	// re-selecting the same rate twice must not double-count it
	ids := lo.Uniq(taxRateIDs)

	if len(ids) == 0 {
		return &ResolvedTaxSelection{
			EffectiveRate: decimal.Zero,
			Applied:       []invoice.AppliedTaxRate{},
		}, nil
	}

	rates, err := s.lookupRates(ctx, ids)
	if err != nil {
		return nil, err
	}

	effective := decimal.Zero
	applied := make([]invoice.AppliedTaxRate, 0, len(ids))

	// selection order is preserved in the snapshot for display; the sum is
	// commutative so it never affects the effective rate
	for _, id := range ids {
		rate, ok := rates[id]
		if !ok {
			return nil, ierr.NewError("tax rate not found").
				WithHintf("tax rate %s does not exist", id).
				WithReportableDetails(map[string]any{
					"tax_rate_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}

		if err := rate.Validate(); err != nil {
			return nil, err
		}

		effective = effective.Add(rate.Percentage)
		applied = append(applied, invoice.AppliedTaxRate{
			TaxRateID:  rate.ID,
			Name:       rate.Name,
			Percentage: rate.Percentage,
		})
	}

	return &ResolvedTaxSelection{
		EffectiveRate: effective,
		Applied:       applied,
	}, nil
}

func (s *taxService) DefaultSelection(ctx context.Context) ([]string, error) {
	rates, err := s.TaxRateRepo.ListDefault(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Map(rates, func(rate *taxrate.TaxRate, _ int) string {
		return rate.ID
	}), nil
}

// lookupRates fetches rate definitions, serving from the cache where possible.
func (s *taxService) lookupRates(ctx context.Context, ids []string) (map[string]*taxrate.TaxRate, error) {
	tenantID := types.GetTenantID(ctx)
	found := make(map[string]*taxrate.TaxRate, len(ids))
	var missing []string

	for _, id := range ids {
		key := cache.GenerateKey(cache.PrefixTaxRate, tenantID, id)
		if cached, ok := s.Cache.Get(ctx, key); ok {
			if rate, ok := cached.(*taxrate.TaxRate); ok {
				found[id] = rate
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return found, nil
	}

	rates, err := s.TaxRateRepo.ListByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	for _, rate := range rates {
		found[rate.ID] = rate
		key := cache.GenerateKey(cache.PrefixTaxRate, tenantID, rate.ID)
		s.Cache.Set(ctx, key, rate, cache.DefaultExpiration)
	}

	return found, nil
}
