package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrInsufficientBalance means a transfer exceeds the sender's balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Ledger is an in-process multi-token balance book. It stands in for the
// external token contracts: the pool engine only queries it, while the
// settlement callback moves funds through Transfer.
type Ledger struct {
	mu       sync.RWMutex
	balances map[common.Address]map[common.Address]*uint256.Int
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[common.Address]map[common.Address]*uint256.Int)}
}

// Mint credits holder with amount of token out of thin air.
func (l *Ledger) Mint(token, holder common.Address, amount *uint256.Int) error {
	if amount == nil {
		return fmt.Errorf("mint amount is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.balance(token, holder)
	next, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return fmt.Errorf("balance overflow for token %s", token.Hex())
	}
	l.set(token, holder, next)
	return nil
}

// Transfer moves amount of token from one holder to another.
func (l *Ledger) Transfer(token, from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return fmt.Errorf("transfer amount is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	fromBalance := l.balance(token, from)
	if fromBalance.Lt(amount) {
		return ErrInsufficientBalance
	}

	toBalance := l.balance(token, to)
	next, overflow := new(uint256.Int).AddOverflow(toBalance, amount)
	if overflow {
		return fmt.Errorf("balance overflow for token %s", token.Hex())
	}

	l.set(token, from, new(uint256.Int).Sub(fromBalance, amount))
	l.set(token, to, next)
	return nil
}

// BalanceOf reports holder's balance of token. Unknown holders have a zero
// balance rather than an error.
func (l *Ledger) BalanceOf(holder common.Address, token common.Address) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance(token, holder).Clone(), nil
}

func (l *Ledger) balance(token, holder common.Address) *uint256.Int {
	if holders, ok := l.balances[token]; ok {
		if balance, ok := holders[holder]; ok {
			return balance
		}
	}
	return uint256.NewInt(0)
}

func (l *Ledger) set(token, holder common.Address, balance *uint256.Int) {
	holders, ok := l.balances[token]
	if !ok {
		holders = make(map[common.Address]*uint256.Int)
		l.balances[token] = holders
	}
	holders[holder] = balance
}
