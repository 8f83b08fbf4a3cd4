package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/alxiri/fulfillment/internal/domain/receipt"
)

// ReceiptStore is an append-only in-memory receipt log.
type ReceiptStore struct {
	mu      sync.RWMutex
	entries []*domain.Receipt
}

func NewReceiptStore() *ReceiptStore {
	return &ReceiptStore{}
}

func (s *ReceiptStore) Append(ctx context.Context, r *domain.Receipt) error {
	_ = ctx
	if r == nil || r.ID == "" {
		return fmt.Errorf("receipt store: id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *r
	s.entries = append(s.entries, &clone)
	return nil
}

func (s *ReceiptStore) ListByAccount(ctx context.Context, account string) ([]*domain.Receipt, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Receipt, 0, len(s.entries))
	for _, entry := range s.entries {
		if account != "" && entry.Account != account {
			continue
		}
		clone := *entry
		out = append(out, &clone)
	}
	return out, nil
}
