package catalog

import "context"

type Repository interface {
	Insert(ctx context.Context, product *Product) error
	Get(ctx context.Context, name string) (*Product, error)
	Update(ctx context.Context, product *Product) error
	// List returns every registered product in registration order.
	List(ctx context.Context) ([]*Product, error)
}
