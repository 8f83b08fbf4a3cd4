package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/alxiri/fulfillment/internal/domain/catalog"
)

// CatalogRepository keeps products in memory. Registration order is preserved
// for enumeration.
type CatalogRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	names    []string
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		products: make(map[string]*domain.Product),
	}
}

func (r *CatalogRepository) Insert(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil || product.Name == "" {
		return fmt.Errorf("catalog repository: product name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.Name]; exists {
		return domain.ErrDuplicateProduct
	}

	r.products[product.Name] = product.Clone()
	r.names = append(r.names, product.Name)
	return nil
}

func (r *CatalogRepository) Get(ctx context.Context, name string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *CatalogRepository) Update(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil || product.Name == "" {
		return fmt.Errorf("catalog repository: product name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.Name]; !exists {
		return domain.ErrNotFound
	}

	r.products[product.Name] = product.Clone()
	return nil
}

func (r *CatalogRepository) List(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.products[name].Clone())
	}
	return out, nil
}
