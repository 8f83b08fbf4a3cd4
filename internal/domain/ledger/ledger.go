package ledger

import (
	"context"
	"errors"
)

var (
	ErrInsufficientFunds     = errors.New("ledger: insufficient funds")
	ErrInsufficientAllowance = errors.New("ledger: not enough allowance")
	ErrInvalidAmount         = errors.New("ledger: amount must be greater than zero")
)

// Ledger is the fungible balance and allowance system the workflow engine
// consults to verify and move funds. Buyers pre-authorize a spend limit for a
// spender; TransferFrom moves funds within that limit on the spender's behalf.
type Ledger interface {
	BalanceOf(ctx context.Context, account string) (int64, error)
	Allowance(ctx context.Context, owner, spender string) (int64, error)
	// TransferFrom moves amount from owner to recipient, debiting the
	// allowance owner granted to spender.
	TransferFrom(ctx context.Context, spender, owner, recipient string, amount int64) error
	// Transfer moves amount between accounts directly. The engine uses it to
	// compensate a debit when a later step of order placement fails.
	Transfer(ctx context.Context, from, to string, amount int64) error
	// IncreaseAllowance credits back part of the allowance owner granted to
	// spender. Together with Transfer it makes a TransferFrom fully
	// reversible: a compensated debit leaves balance and allowance exactly as
	// they were.
	IncreaseAllowance(ctx context.Context, owner, spender string, amount int64) error
}
