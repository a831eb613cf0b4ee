package pool

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestStaticDepositReturnsCopies(t *testing.T) {
	calc := StaticDeposit{Amount0: uint256.NewInt(100), Amount1: uint256.NewInt(200)}

	amount0, amount1, err := calc.Amounts(Slot0{SqrtPriceX96: uint256.NewInt(1)}, -10, 10, uint256.NewInt(1))
	if err != nil {
		t.Fatalf("amounts: %v", err)
	}

	amount0.Clear()
	amount1.Clear()

	again0, again1, _ := calc.Amounts(Slot0{SqrtPriceX96: uint256.NewInt(1)}, -10, 10, uint256.NewInt(1))
	if again0.Uint64() != 100 || again1.Uint64() != 200 {
		t.Fatalf("configured amounts were mutated: %s, %s", again0.Dec(), again1.Dec())
	}
}
