package order

import (
	"context"

	"github.com/alxiri/fulfillment/internal/domain/catalog"
)

// CatalogPort is the slice of the catalog the workflow engine consumes:
// product lookup for validation and role-gated stock decrement.
type CatalogPort interface {
	GetDetail(ctx context.Context, name string) (*catalog.Product, error)
	DecrementStock(ctx context.Context, caller, name string, quantity int) error
}
