package taxrate

import (
	"context"
)

// Repository defines the interface for tax rate persistence operations
type Repository interface {
	// Create creates a new tax rate definition
	Create(ctx context.Context, rate *TaxRate) error

	// Get retrieves a tax rate by ID
	Get(ctx context.Context, id string) (*TaxRate, error)

	// Update updates an existing tax rate definition
	Update(ctx context.Context, rate *TaxRate) error

	// List retrieves all tax rates for the tenant in the context
	List(ctx context.Context) ([]*TaxRate, error)

	// ListByIDs retrieves the tax rates with the given IDs
	ListByIDs(ctx context.Context, ids []string) ([]*TaxRate, error)

	// ListDefault retrieves the tenant's default tax rates
	ListDefault(ctx context.Context) ([]*TaxRate, error)
}
