package receipt

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidAmount = errors.New("receipt: amount must be greater than zero")

// Receipt is one append-only audit entry. Entries come from explicit deposits
// and from order lifecycle events recorded on behalf of the buyer.
type Receipt struct {
	ID         string
	Account    string
	Concept    string
	Amount     int64
	RecordedAt time.Time
}

type Repository interface {
	Append(ctx context.Context, r *Receipt) error
	// ListByAccount returns entries for the account in append order. An empty
	// account returns every entry.
	ListByAccount(ctx context.Context, account string) ([]*Receipt, error)
}
