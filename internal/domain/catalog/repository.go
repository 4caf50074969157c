package catalog

import (
	"context"
)

// Repository defines the interface for catalog item persistence operations
type Repository interface {
	// Create creates a new catalog item
	Create(ctx context.Context, item *Item) error

	// Get retrieves a catalog item by ID
	Get(ctx context.Context, id string) (*Item, error)

	// List retrieves all catalog items for the tenant in the context
	List(ctx context.Context) ([]*Item, error)
}
