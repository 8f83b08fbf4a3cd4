package order

import "context"

type Repository interface {
	// Insert stores the order under a fresh sequential id (starting at 0),
	// sets it on the order and returns it.
	Insert(ctx context.Context, order *Order) (int64, error)
	Get(ctx context.Context, id int64) (*Order, error)
	Update(ctx context.Context, order *Order) error
}
