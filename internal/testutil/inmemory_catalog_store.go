package testutil

import (
	"context"
	"sync"

	"github.com/quillbooks/quillbooks/internal/domain/catalog"
	ierr "github.com/quillbooks/quillbooks/internal/errors"
	"github.com/quillbooks/quillbooks/internal/types"
)

// InMemoryCatalogStore implements catalog.Repository
type InMemoryCatalogStore struct {
	mu    sync.RWMutex
	items map[string]*catalog.Item
}

func NewInMemoryCatalogStore() *InMemoryCatalogStore {
	return &InMemoryCatalogStore{
		items: make(map[string]*catalog.Item),
	}
}

func (s *InMemoryCatalogStore) Create(ctx context.Context, item *catalog.Item) error {
	if item == nil {
		return ierr.NewError("catalog item cannot be nil").Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return ierr.NewError("catalog item already exists").
			WithReportableDetails(map[string]any{"catalog_item_id": item.ID}).
			Mark(ierr.ErrAlreadyExists)
	}

	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *InMemoryCatalogStore) Get(ctx context.Context, id string) (*catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok || item.TenantID != types.GetTenantID(ctx) || item.Status == types.StatusDeleted {
		return nil, ierr.NewError("catalog item not found").
			WithReportableDetails(map[string]any{"catalog_item_id": id}).
			Mark(ierr.ErrNotFound)
	}

	cp := *item
	return &cp, nil
}

func (s *InMemoryCatalogStore) List(ctx context.Context) ([]*catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*catalog.Item
	for _, item := range s.items {
		if item.TenantID == types.GetTenantID(ctx) && item.Status != types.StatusDeleted {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Clear removes all catalog items from the store
func (s *InMemoryCatalogStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*catalog.Item)
}
