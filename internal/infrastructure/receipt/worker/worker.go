package worker

import (
	"context"
	"time"

	appReceipt "github.com/alxiri/fulfillment/internal/application/receipt"
	domorder "github.com/alxiri/fulfillment/internal/domain/order"
	domoutbox "github.com/alxiri/fulfillment/internal/domain/outbox"
	"github.com/alxiri/fulfillment/internal/pkg/logging"
	"go.uber.org/zap"
)

// Worker turns order lifecycle events into receipt log entries, the audit
// trail external observers read back per buyer.
type Worker struct {
	subscriber domoutbox.Subscriber
	service    *appReceipt.Service
}

func New(subscriber domoutbox.Subscriber, service *appReceipt.Service) *Worker {
	return &Worker{
		subscriber: subscriber,
		service:    service,
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domorder.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
	w.subscriber.Subscribe(domorder.StageAdvancedEvent{}.EventName(), w.handleStageAdvanced)
	w.subscriber.Subscribe(domorder.DeliveredEvent{}.EventName(), w.handleDelivered)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		return nil
	}

	logger := logging.FromContext(ctx).With(zap.String("component", "receipt_worker"))
	if err := w.service.OnOrderPlaced(ctx, evt); err != nil {
		logger.Warn("receipt_append_failed", zap.Int64("order_id", evt.OrderID), zap.Error(err))
		return err
	}
	logger.Info("receipt_appended", zap.Int64("order_id", evt.OrderID), zap.String("event", e.EventName()))
	return nil
}

func (w *Worker) handleStageAdvanced(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.StageAdvancedEvent)
	if !ok {
		return nil
	}
	return w.recordStageChange(ctx, e.EventName(), evt.Buyer, evt.OrderID, evt.FromStage, evt.ToStage, evt.OccurredAt)
}

func (w *Worker) handleDelivered(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.DeliveredEvent)
	if !ok {
		return nil
	}
	return w.recordStageChange(ctx, e.EventName(), evt.Buyer, evt.OrderID, evt.FromStage, evt.ToStage, evt.OccurredAt)
}

func (w *Worker) recordStageChange(ctx context.Context, eventName, buyer string, orderID int64, from, to domorder.Stage, at time.Time) error {
	logger := logging.FromContext(ctx).With(zap.String("component", "receipt_worker"))

	if err := w.service.OnStageChanged(ctx, buyer, orderID, from, to, at); err != nil {
		logger.Warn("receipt_append_failed", zap.Int64("order_id", orderID), zap.Error(err))
		return err
	}
	logger.Info("receipt_appended", zap.Int64("order_id", orderID), zap.String("event", eventName))
	return nil
}
