package catalog

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("catalog: product does not exist or is not registered")
	ErrDuplicateProduct  = errors.New("catalog: product is already registered")
	ErrInvalidQuantity   = errors.New("catalog: total must be greater than zero")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
)

// Product is a catalog entry keyed by its unique name. Price is denominated in
// the payment ledger's unit.
type Product struct {
	Name        string
	Description string
	Total       int
	State       State
	Price       int64
	UpdatedAt   time.Time
}

func New(name, description string, total int, price int64) (*Product, error) {
	if total <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Product{
		Name:        name,
		Description: description,
		Total:       total,
		State:       StateActive,
		Price:       price,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}

// ApplyUpdate overwrites total and price per field, keeping the current value
// for any non-positive input. Zero or negative fields are not an error.
func (p *Product) ApplyUpdate(total int, price int64) {
	if total > 0 {
		p.Total = total
	}
	if price > 0 {
		p.Price = price
	}
	p.touch()
}

// Deduct reduces available stock, rejecting quantities the stock cannot cover.
func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 || quantity > p.Total {
		return ErrInsufficientStock
	}
	p.Total -= quantity
	p.touch()
	return nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
