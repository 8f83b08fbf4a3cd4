package receipt

import (
	"context"
	"testing"
	"time"

	domorder "github.com/alxiri/fulfillment/internal/domain/order"
	domoutbox "github.com/alxiri/fulfillment/internal/domain/outbox"
	domain "github.com/alxiri/fulfillment/internal/domain/receipt"
	"github.com/alxiri/fulfillment/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	events []domoutbox.Event
}

func (p *capturePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.events = append(p.events, e)
	return nil
}

func TestDepositRecordsEntryAndEmitsEvent(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	svc := NewService(memory.NewReceiptStore(), pub)

	entry, err := svc.Deposit(ctx, "bob", "monthly top up", 500)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "bob", entry.Account)
	assert.Equal(t, int64(500), entry.Amount)
	assert.False(t, entry.RecordedAt.IsZero())

	require.Len(t, pub.events, 1)
	logged, ok := pub.events[0].(domain.DepositLogEvent)
	require.True(t, ok)
	assert.Equal(t, "bob", logged.Account)
	assert.Equal(t, int64(500), logged.Amount)
}

func TestDepositValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewReceiptStore(), nil)

	_, err := svc.Deposit(ctx, "", "no account", 10)
	assert.Error(t, err)

	_, err = svc.Deposit(ctx, "bob", "zero", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestListByAccountFilters(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewReceiptStore(), nil)

	_, err := svc.Deposit(ctx, "bob", "first", 10)
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, "alice", "second", 20)
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, "bob", "third", 30)
	require.NoError(t, err)

	entries, err := svc.ListByAccount(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Concept)
	assert.Equal(t, "third", entries[1].Concept)

	all, err := svc.ListByAccount(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOrderLifecycleAuditEntries(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewReceiptStore(), nil)
	at := time.Now().UTC()

	err := svc.OnOrderPlaced(ctx, domorder.OrderPlacedEvent{
		OrderID:    0,
		Buyer:      "bob",
		Product:    "pijamas",
		Quantity:   30,
		Amount:     90,
		OccurredAt: at,
	})
	require.NoError(t, err)

	err = svc.OnStageChanged(ctx, "bob", 0, domorder.StageCreated, domorder.StageCorte, at)
	require.NoError(t, err)

	entries, err := svc.ListByAccount(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Concept, "pijamas")
	assert.Equal(t, int64(90), entries[0].Amount)
	assert.Contains(t, entries[1].Concept, "creado -> corte")
	assert.Zero(t, entries[1].Amount)
}
