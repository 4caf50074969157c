package testutil

import (
	"context"
	"sync"

	"github.com/quillbooks/quillbooks/internal/domain/invoice"
	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository with the same
// compare-and-set semantics the persistence layer must provide: Update fails
// with a version conflict when the caller holds a stale version.
type InMemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		invoices: make(map[string]*invoice.Invoice),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}

	out := *inv

	if inv.LineItems != nil {
		out.LineItems = make([]*invoice.LineItem, len(inv.LineItems))
		for i, item := range inv.LineItems {
			itemCopy := *item
			out.LineItems[i] = &itemCopy
		}
	}

	if inv.AppliedTaxRates != nil {
		out.AppliedTaxRates = make([]invoice.AppliedTaxRate, len(inv.AppliedTaxRates))
		copy(out.AppliedTaxRates, inv.AppliedTaxRates)
	}

	if inv.Metadata != nil {
		out.Metadata = make(types.Metadata, len(inv.Metadata))
		for k, v := range inv.Metadata {
			out.Metadata[k] = v
		}
	}

	return &out
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; exists {
		return ierr.NewError("invoice already exists").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrAlreadyExists)
	}

	s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok || inv.TenantID != types.GetTenantID(ctx) || inv.Status == types.StatusDeleted {
		return nil, ierr.NewError("invoice not found").
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrNotFound)
	}

	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.invoices[inv.ID]
	if !ok || stored.TenantID != types.GetTenantID(ctx) {
		return ierr.NewError("invoice not found").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrNotFound)
	}

	if stored.Version != inv.Version {
		return ierr.NewError("invoice was modified concurrently").
			WithHint("Refetch the invoice and retry the operation").
			WithReportableDetails(map[string]any{
				"invoice_id":       inv.ID,
				"expected_version": inv.Version,
				"stored_version":   stored.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	inv.Version++
	s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*invoice.Invoice
	for _, inv := range s.invoices {
		if inv.TenantID == types.GetTenantID(ctx) && inv.Status != types.StatusDeleted {
			out = append(out, copyInvoice(inv))
		}
	}
	return out, nil
}

func (s *InMemoryInvoiceStore) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invoices {
		if inv.TenantID != types.GetTenantID(ctx) || inv.Status == types.StatusDeleted {
			continue
		}
		if inv.IdempotencyKey != nil && *inv.IdempotencyKey == key {
			return copyInvoice(inv), nil
		}
	}

	return nil, ierr.NewError("invoice not found").
		WithReportableDetails(map[string]any{"idempotency_key": key}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryInvoiceStore) GetByPaymentLinkID(ctx context.Context, linkID string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invoices {
		if inv.TenantID != types.GetTenantID(ctx) || inv.Status == types.StatusDeleted {
			continue
		}
		if inv.PaymentLinkID != nil && *inv.PaymentLinkID == linkID {
			return copyInvoice(inv), nil
		}
	}

	return nil, ierr.NewError("invoice not found for payment link").
		WithReportableDetails(map[string]any{"payment_link_id": linkID}).
		Mark(ierr.ErrNotFound)
}

// Clear removes all invoices from the store
func (s *InMemoryInvoiceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = make(map[string]*invoice.Invoice)
}
