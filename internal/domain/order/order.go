package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("order: order does not exist")
	ErrInvalidQuantity     = errors.New("order: quantity must be greater than zero")
	ErrAlreadyTerminal     = errors.New("order: order is past the last intermediate stage")
	ErrNotReadyForDelivery = errors.New("order: order cannot be delivered yet")
)

// StageChange records one transition in an order's history.
type StageChange struct {
	From Stage
	To   Stage
	At   time.Time
}

// Order is a purchase order moving through the fulfillment pipeline. IDs are
// sequential integers assigned by the repository, starting at 0. Once the
// order reaches StageDelivered it is immutable.
type Order struct {
	ID              int64
	Buyer           string
	Product         string
	Quantity        int
	DeliveryAddress string
	Amount          int64
	Stage           Stage
	History         []StageChange
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func New(buyer, product, deliveryAddress string, quantity int, amount int64) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &Order{
		Buyer:           buyer,
		Product:         product,
		Quantity:        quantity,
		DeliveryAddress: deliveryAddress,
		Amount:          amount,
		Stage:           StageCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Advance moves the order exactly one stage forward. Orders already at
// StageDespacho or StageDelivered reject the call; only Deliver may close the
// pipeline from StageDespacho.
func (o *Order) Advance() (StageChange, error) {
	to, ok := o.Stage.Next()
	if !ok {
		return StageChange{}, ErrAlreadyTerminal
	}
	return o.transition(to), nil
}

// Deliver closes the order, legal only from StageDespacho.
func (o *Order) Deliver() (StageChange, error) {
	if o.Stage != StageDespacho {
		return StageChange{}, ErrNotReadyForDelivery
	}
	return o.transition(StageDelivered), nil
}

func (o *Order) transition(to Stage) StageChange {
	change := StageChange{From: o.Stage, To: to, At: time.Now().UTC()}
	o.Stage = to
	o.History = append(o.History, change)
	o.UpdatedAt = change.At
	return change
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.History = append([]StageChange(nil), o.History...)
	return &clone
}
