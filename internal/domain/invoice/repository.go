package invoice

import (
	"context"
)

// Repository defines the interface for invoice persistence operations.
//
// Update is compare-and-set: the implementation must reject a write whose
// in-memory Version does not match the stored one (marking the error with
// ierr.ErrVersionConflict) and increment the version on success. Concurrent
// conflicting transitions therefore cannot both apply; the loser refetches
// and retries.
type Repository interface {
	// Create creates a new invoice together with its line items
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID
	Get(ctx context.Context, id string) (*Invoice, error)

	// Update updates an existing invoice, compare-and-set on Version
	Update(ctx context.Context, invoice *Invoice) error

	// List retrieves all invoices for the tenant in the context
	List(ctx context.Context) ([]*Invoice, error)

	// GetByIdempotencyKey retrieves an invoice by its idempotency key
	GetByIdempotencyKey(ctx context.Context, key string) (*Invoice, error)

	// GetByPaymentLinkID retrieves the invoice carrying the payment link
	GetByPaymentLinkID(ctx context.Context, linkID string) (*Invoice, error)
}

// SequenceRepository hands out per-tenant invoice number sequence values.
type SequenceRepository interface {
	// Next atomically increments and returns the sequence value for the
	// tenant in the context and the given period
	Next(ctx context.Context, period string) (int64, error)
}
