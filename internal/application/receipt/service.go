package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	domorder "github.com/alxiri/fulfillment/internal/domain/order"
	domoutbox "github.com/alxiri/fulfillment/internal/domain/outbox"
	domain "github.com/alxiri/fulfillment/internal/domain/receipt"
	"github.com/alxiri/fulfillment/internal/pkg/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service records receipts: explicit deposits plus one audit entry per order
// lifecycle event, queryable per account.
type Service struct {
	repo      domain.Repository
	publisher domoutbox.Publisher
}

func NewService(repo domain.Repository, publisher domoutbox.Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
	}
}

// Deposit appends a deposit entry and emits DepositLog.
func (s *Service) Deposit(ctx context.Context, account, concept string, amount int64) (*domain.Receipt, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "receipt_service"))

	if account == "" {
		return nil, errors.New("receipt: account is required")
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	entry := &domain.Receipt{
		ID:         uuid.NewString(),
		Account:    account,
		Concept:    concept,
		Amount:     amount,
		RecordedAt: time.Now().UTC(),
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("receipt: append: %w", err)
	}

	logger.Info("deposit_recorded",
		zap.String("account", account),
		zap.String("concept", concept),
		zap.Int64("amount", amount),
	)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, domain.NewDepositLogEvent(entry)); err != nil {
			logger.Warn("deposit_event_publish_failed", zap.Error(err))
		}
	}

	return entry, nil
}

// ListByAccount returns the account's entries in append order; an empty
// account returns the full log.
func (s *Service) ListByAccount(ctx context.Context, account string) ([]*domain.Receipt, error) {
	return s.repo.ListByAccount(ctx, account)
}

// OnOrderPlaced appends an audit entry for a freshly placed order.
func (s *Service) OnOrderPlaced(ctx context.Context, e domorder.OrderPlacedEvent) error {
	return s.appendAudit(ctx, e.Buyer, fmt.Sprintf("order %d placed: %s x%d", e.OrderID, e.Product, e.Quantity), e.Amount, e.OccurredAt)
}

// OnStageChanged appends an audit entry for an advance or a delivery.
func (s *Service) OnStageChanged(ctx context.Context, buyer string, orderID int64, from, to domorder.Stage, at time.Time) error {
	return s.appendAudit(ctx, buyer, fmt.Sprintf("order %d moved %s -> %s", orderID, from, to), 0, at)
}

func (s *Service) appendAudit(ctx context.Context, account, concept string, amount int64, at time.Time) error {
	entry := &domain.Receipt{
		ID:         uuid.NewString(),
		Account:    account,
		Concept:    concept,
		Amount:     amount,
		RecordedAt: at,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("receipt: append audit: %w", err)
	}
	return nil
}
