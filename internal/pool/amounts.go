package pool

import "github.com/holiman/uint256"

// DepositCalc converts a liquidity amount over a price range into the two
// token amounts the provider must deposit.
type DepositCalc interface {
	Amounts(slot0 Slot0, lowerTick, upperTick int32, liquidity *uint256.Int) (amount0, amount1 *uint256.Int, err error)
}

// StaticDeposit returns a fixed amount pair regardless of range or size,
// appropriate to the pool's configured initial price.
// TODO: replace with the Q64.96 price-integral of (sqrtPrice, range, liquidity)
// once the sqrt-price math package lands.
type StaticDeposit struct {
	Amount0 *uint256.Int
	Amount1 *uint256.Int
}

func (s StaticDeposit) Amounts(_ Slot0, _, _ int32, _ *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	return s.Amount0.Clone(), s.Amount1.Clone(), nil
}
