// Package token implements the fungible payment ledger: balances, owner to
// spender allowances, mint and transfer. It satisfies ledger.Ledger.
package token

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/alxiri/fulfillment/internal/domain/ledger"
)

type Token struct {
	mu         sync.RWMutex
	balances   map[string]int64
	allowances map[string]map[string]int64 // owner -> spender -> remaining
}

func New() *Token {
	return &Token{
		balances:   make(map[string]int64),
		allowances: make(map[string]map[string]int64),
	}
}

// Mint credits freshly issued funds to an account.
func (t *Token) Mint(ctx context.Context, account string, amount int64) error {
	_ = ctx
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.balances[account] += amount
	return nil
}

// Approve sets the spend limit owner grants to spender, replacing any prior
// allowance.
func (t *Token) Approve(ctx context.Context, owner, spender string, amount int64) error {
	_ = ctx
	if amount < 0 {
		return domain.ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[string]int64)
		t.allowances[owner] = spenders
	}
	spenders[spender] = amount
	return nil
}

func (t *Token) BalanceOf(ctx context.Context, account string) (int64, error) {
	_ = ctx

	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.balances[account], nil
}

func (t *Token) Allowance(ctx context.Context, owner, spender string) (int64, error) {
	_ = ctx

	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.allowances[owner][spender], nil
}

// IncreaseAllowance adds amount to the allowance owner granted to spender.
func (t *Token) IncreaseAllowance(ctx context.Context, owner, spender string, amount int64) error {
	_ = ctx
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[string]int64)
		t.allowances[owner] = spenders
	}
	spenders[spender] += amount
	return nil
}

func (t *Token) Transfer(ctx context.Context, from, to string, amount int64) error {
	_ = ctx

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.move(from, to, amount)
}

// TransferFrom moves amount from owner to recipient on behalf of spender,
// consuming the allowance owner granted to spender.
func (t *Token) TransferFrom(ctx context.Context, spender, owner, recipient string, amount int64) error {
	_ = ctx
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := t.allowances[owner][spender]
	if remaining < amount {
		return fmt.Errorf("%w: spender %s has %d of %d required", domain.ErrInsufficientAllowance, spender, remaining, amount)
	}
	if err := t.move(owner, recipient, amount); err != nil {
		return err
	}
	t.allowances[owner][spender] = remaining - amount
	return nil
}

// move assumes the caller holds the write lock.
func (t *Token) move(from, to string, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if t.balances[from] < amount {
		return fmt.Errorf("%w: account %s has %d of %d required", domain.ErrInsufficientFunds, from, t.balances[from], amount)
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}
