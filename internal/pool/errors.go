package pool

import "errors"

var (
	// ErrInvalidTickRange means the requested range is unordered or outside
	// the global tick bounds.
	ErrInvalidTickRange = errors.New("invalid tick range")

	// ErrZeroLiquidity means a mint was requested with a zero amount.
	ErrZeroLiquidity = errors.New("zero liquidity")

	// ErrInsufficientInput means settlement verification found the required
	// funds were not delivered.
	ErrInsufficientInput = errors.New("insufficient input amount")

	// ErrLiquidityOverflow means a liquidity accumulator would exceed 128 bits.
	ErrLiquidityOverflow = errors.New("liquidity overflow")

	// ErrLiquidityUnderflow means a decrement exceeds the stored liquidity.
	ErrLiquidityUnderflow = errors.New("liquidity underflow")

	// ErrPoolLocked means another operation is in flight on this pool.
	ErrPoolLocked = errors.New("pool locked")
)
