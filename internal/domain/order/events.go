package order

import "time"

// OrderPlacedEvent is emitted once an order has been paid, stock deducted and
// the order stored. Downstream observers (tracking UI, receipt log) rely on it.
type OrderPlacedEvent struct {
	OrderID    int64
	Buyer      string
	Product    string
	Quantity   int
	Amount     int64
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:    o.ID,
		Buyer:      o.Buyer,
		Product:    o.Product,
		Quantity:   o.Quantity,
		Amount:     o.Amount,
		OccurredAt: o.CreatedAt,
	}
}

// StageAdvancedEvent is emitted for every intermediate stage transition.
type StageAdvancedEvent struct {
	OrderID    int64
	FromStage  Stage
	ToStage    Stage
	Buyer      string
	Product    string
	Quantity   int
	OccurredAt time.Time
}

func (StageAdvancedEvent) EventName() string { return "order.stage_advanced" }

func NewStageAdvancedEvent(o *Order, change StageChange) StageAdvancedEvent {
	return StageAdvancedEvent{
		OrderID:    o.ID,
		FromStage:  change.From,
		ToStage:    change.To,
		Buyer:      o.Buyer,
		Product:    o.Product,
		Quantity:   o.Quantity,
		OccurredAt: change.At,
	}
}

// DeliveredEvent is emitted when a courier hands the order to the customer.
type DeliveredEvent struct {
	OrderID    int64
	FromStage  Stage
	ToStage    Stage
	Buyer      string
	Product    string
	Quantity   int
	OccurredAt time.Time
}

func (DeliveredEvent) EventName() string { return "order.delivered" }

func NewDeliveredEvent(o *Order, change StageChange) DeliveredEvent {
	return DeliveredEvent{
		OrderID:    o.ID,
		FromStage:  change.From,
		ToStage:    change.To,
		Buyer:      o.Buyer,
		Product:    o.Product,
		Quantity:   o.Quantity,
		OccurredAt: change.At,
	}
}
