package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BalanceSource answers on-ledger balance queries. It is the only view the
// engine has of token state; transfers are performed entirely by external
// code driven through the mint callback.
type BalanceSource interface {
	BalanceOf(holder common.Address, token common.Address) (*uint256.Int, error)
}

// MintCallback is the caller-supplied payment capability. When PayForMint
// returns, the required amounts should have been transferred to the pool;
// the engine verifies that by balance delta and never trusts the callback
// itself.
type MintCallback interface {
	PayForMint(amount0, amount1 *uint256.Int) error
}

// MintCallbackFunc adapts a plain function to MintCallback.
type MintCallbackFunc func(amount0, amount1 *uint256.Int) error

func (f MintCallbackFunc) PayForMint(amount0, amount1 *uint256.Int) error {
	return f(amount0, amount1)
}

// collectPayment runs the pull-based settlement: snapshot the pool's
// balances, hand control to the callback, then require that each balance
// grew by at least the amount owed.
func (p *Pool) collectPayment(amount0, amount1 *uint256.Int, cb MintCallback) error {
	before0, err := p.requiredBalance(p.token0, amount0)
	if err != nil {
		return err
	}
	before1, err := p.requiredBalance(p.token1, amount1)
	if err != nil {
		return err
	}

	if err := cb.PayForMint(amount0.Clone(), amount1.Clone()); err != nil {
		return fmt.Errorf("mint callback: %w", err)
	}

	if err := p.verifyDelta(p.token0, before0, amount0); err != nil {
		return err
	}
	return p.verifyDelta(p.token1, before1, amount1)
}

func (p *Pool) requiredBalance(token common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if amount.IsZero() {
		return nil, nil
	}
	balance, err := p.balances.BalanceOf(p.address, token)
	if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (p *Pool) verifyDelta(token common.Address, before, amount *uint256.Int) error {
	if before == nil {
		return nil
	}
	after, err := p.balances.BalanceOf(p.address, token)
	if err != nil {
		return fmt.Errorf("query balance: %w", err)
	}
	owed := new(uint256.Int).Add(before, amount)
	if after.Lt(owed) {
		return ErrInsufficientInput
	}
	return nil
}
