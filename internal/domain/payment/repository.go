package payment

import (
	"context"
)

// Repository defines the interface for payment record persistence operations
type Repository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *Payment) error

	// ListByInvoice retrieves all payment records for an invoice, oldest first
	ListByInvoice(ctx context.Context, invoiceID string) ([]*Payment, error)
}
