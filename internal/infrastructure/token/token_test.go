package token

import (
	"context"
	"testing"

	domain "github.com/alxiri/fulfillment/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAccumulates(t *testing.T) {
	ctx := context.Background()
	coin := New()

	require.NoError(t, coin.Mint(ctx, "alice", 100))
	require.NoError(t, coin.Mint(ctx, "alice", 50))

	balance, err := coin.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)
}

func TestMintRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	coin := New()

	assert.ErrorIs(t, coin.Mint(ctx, "alice", 0), domain.ErrInvalidAmount)
	assert.ErrorIs(t, coin.Mint(ctx, "alice", -5), domain.ErrInvalidAmount)
}

func TestBalanceOfUnknownAccountIsZero(t *testing.T) {
	coin := New()

	balance, err := coin.BalanceOf(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestApproveReplacesAllowance(t *testing.T) {
	ctx := context.Background()
	coin := New()

	require.NoError(t, coin.Approve(ctx, "alice", "bob", 90))
	require.NoError(t, coin.Approve(ctx, "alice", "bob", 10))

	remaining, err := coin.Allowance(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(10), remaining)
}

func TestApproveZeroRevokes(t *testing.T) {
	ctx := context.Background()
	coin := New()

	require.NoError(t, coin.Approve(ctx, "alice", "bob", 90))
	require.NoError(t, coin.Approve(ctx, "alice", "bob", 0))

	err := coin.TransferFrom(ctx, "bob", "alice", "bob", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)
}

func TestIncreaseAllowanceAccumulates(t *testing.T) {
	ctx := context.Background()
	coin := New()

	require.NoError(t, coin.Approve(ctx, "alice", "treasury", 30))
	require.NoError(t, coin.IncreaseAllowance(ctx, "alice", "treasury", 60))

	remaining, err := coin.Allowance(ctx, "alice", "treasury")
	require.NoError(t, err)
	assert.Equal(t, int64(90), remaining)
}

func TestIncreaseAllowanceWithoutPriorApproval(t *testing.T) {
	ctx := context.Background()
	coin := New()

	require.NoError(t, coin.IncreaseAllowance(ctx, "alice", "treasury", 25))

	remaining, err := coin.Allowance(ctx, "alice", "treasury")
	require.NoError(t, err)
	assert.Equal(t, int64(25), remaining)
}

func TestIncreaseAllowanceRejectsNonPositiveAmount(t *testing.T) {
	coin := New()
	assert.ErrorIs(t, coin.IncreaseAllowance(context.Background(), "alice", "treasury", 0), domain.ErrInvalidAmount)
}

func TestTransferMovesFunds(t *testing.T) {
	ctx := context.Background()
	coin := New()
	require.NoError(t, coin.Mint(ctx, "alice", 100))

	require.NoError(t, coin.Transfer(ctx, "alice", "bob", 40))

	aliceBalance, _ := coin.BalanceOf(ctx, "alice")
	bobBalance, _ := coin.BalanceOf(ctx, "bob")
	assert.Equal(t, int64(60), aliceBalance)
	assert.Equal(t, int64(40), bobBalance)
}

func TestTransferInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	coin := New()
	require.NoError(t, coin.Mint(ctx, "alice", 10))

	err := coin.Transfer(ctx, "alice", "bob", 40)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	balance, _ := coin.BalanceOf(ctx, "alice")
	assert.Equal(t, int64(10), balance)
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	ctx := context.Background()
	coin := New()
	require.NoError(t, coin.Mint(ctx, "alice", 100))
	require.NoError(t, coin.Approve(ctx, "alice", "treasury", 90))

	require.NoError(t, coin.TransferFrom(ctx, "treasury", "alice", "treasury", 60))

	remaining, err := coin.Allowance(ctx, "alice", "treasury")
	require.NoError(t, err)
	assert.Equal(t, int64(30), remaining)

	treasuryBalance, _ := coin.BalanceOf(ctx, "treasury")
	assert.Equal(t, int64(60), treasuryBalance)
}

func TestTransferFromExceedingAllowance(t *testing.T) {
	ctx := context.Background()
	coin := New()
	require.NoError(t, coin.Mint(ctx, "alice", 100))
	require.NoError(t, coin.Approve(ctx, "alice", "treasury", 30))

	err := coin.TransferFrom(ctx, "treasury", "alice", "treasury", 60)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)

	balance, _ := coin.BalanceOf(ctx, "alice")
	assert.Equal(t, int64(100), balance)
}

func TestTransferFromKeepsAllowanceWhenBalanceLow(t *testing.T) {
	ctx := context.Background()
	coin := New()
	require.NoError(t, coin.Mint(ctx, "alice", 10))
	require.NoError(t, coin.Approve(ctx, "alice", "treasury", 90))

	err := coin.TransferFrom(ctx, "treasury", "alice", "treasury", 60)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	remaining, _ := coin.Allowance(ctx, "alice", "treasury")
	assert.Equal(t, int64(90), remaining)
}
