package pool

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	testPoolAddr = common.HexToAddress("0x9000000000000000000000000000000000000001")
	testToken0   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testToken1   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	testSender   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testOwner    = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

// scenario values: ETH/USDC around price 5000
const (
	scenarioTick      int32 = 85176
	scenarioLower     int32 = 84222
	scenarioUpper     int32 = 86129
	scenarioSqrtPrice       = "5602277097478614198912276234240"
	scenarioLiquidity       = "1517882343751509868544"
	scenarioAmount0         = "998976618347425280"
	scenarioAmount1         = "5000000000000000000000"
)

// testBalances is a minimal balance book the settlement protocol can query.
type testBalances struct {
	held map[common.Address]*uint256.Int
}

func newTestBalances() *testBalances {
	return &testBalances{held: make(map[common.Address]*uint256.Int)}
}

func (b *testBalances) BalanceOf(_ common.Address, token common.Address) (*uint256.Int, error) {
	if balance, ok := b.held[token]; ok {
		return balance.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

func (b *testBalances) credit(token common.Address, amount *uint256.Int) {
	current, ok := b.held[token]
	if !ok {
		current = uint256.NewInt(0)
	}
	b.held[token] = new(uint256.Int).Add(current, amount)
}

func mustAmount(t *testing.T, value string) *uint256.Int {
	t.Helper()
	parsed, err := uint256.FromDecimal(value)
	if err != nil {
		t.Fatalf("parse %s: %v", value, err)
	}
	return parsed
}

func newScenarioPool(t *testing.T, balances *testBalances) *Pool {
	t.Helper()
	p, err := New(Config{
		Address:      testPoolAddr,
		Token0:       testToken0,
		Token1:       testToken1,
		SqrtPriceX96: mustAmount(t, scenarioSqrtPrice),
		Tick:         scenarioTick,
		Deposits: StaticDeposit{
			Amount0: mustAmount(t, scenarioAmount0),
			Amount1: mustAmount(t, scenarioAmount1),
		},
		Balances: balances,
	})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	return p
}

// fundingCallback pays the pool in full through the test balance book.
func fundingCallback(balances *testBalances) MintCallback {
	return MintCallbackFunc(func(amount0, amount1 *uint256.Int) error {
		balances.credit(testToken0, amount0)
		balances.credit(testToken1, amount1)
		return nil
	})
}

func TestMintScenario(t *testing.T) {
	balances := newTestBalances()
	p := newScenarioPool(t, balances)
	liquidity := mustAmount(t, scenarioLiquidity)

	amount0, amount1, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, liquidity, fundingCallback(balances))
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if amount0.Dec() != scenarioAmount0 {
		t.Fatalf("amount0 mismatch: %s != %s", amount0.Dec(), scenarioAmount0)
	}
	if amount1.Dec() != scenarioAmount1 {
		t.Fatalf("amount1 mismatch: %s != %s", amount1.Dec(), scenarioAmount1)
	}

	for _, index := range []int32{scenarioLower, scenarioUpper} {
		info, ok := p.Tick(index)
		if !ok {
			t.Fatalf("tick %d not found", index)
		}
		if !info.Initialized {
			t.Fatalf("tick %d not initialized", index)
		}
		if !info.Liquidity.Eq(liquidity) {
			t.Fatalf("tick %d liquidity mismatch: %s", index, info.Liquidity.Dec())
		}
	}

	position, ok := p.Position(testOwner, scenarioLower, scenarioUpper)
	if !ok {
		t.Fatalf("position not found")
	}
	if !position.Liquidity.Eq(liquidity) {
		t.Fatalf("position liquidity mismatch: %s", position.Liquidity.Dec())
	}

	byKey, ok := p.PositionByKey(PositionKey(testOwner, scenarioLower, scenarioUpper))
	if !ok || !byKey.Liquidity.Eq(liquidity) {
		t.Fatalf("position lookup by key mismatch")
	}

	if !p.Liquidity().Eq(liquidity) {
		t.Fatalf("global liquidity mismatch: %s", p.Liquidity().Dec())
	}
}

func TestMintAccumulates(t *testing.T) {
	balances := newTestBalances()
	p := newScenarioPool(t, balances)
	callback := fundingCallback(balances)

	total := uint256.NewInt(0)
	for i := 0; i < 3; i++ {
		amount := uint256.NewInt(uint64(1000 * (i + 1)))
		if _, _, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, amount, callback); err != nil {
			t.Fatalf("mint %d failed: %v", i, err)
		}
		total.Add(total, amount)
	}

	position, _ := p.Position(testOwner, scenarioLower, scenarioUpper)
	if !position.Liquidity.Eq(total) {
		t.Fatalf("position liquidity mismatch: %s != %s", position.Liquidity.Dec(), total.Dec())
	}
	if !p.Liquidity().Eq(total) {
		t.Fatalf("global liquidity mismatch: %s != %s", p.Liquidity().Dec(), total.Dec())
	}

	lower, _ := p.Tick(scenarioLower)
	if !lower.Liquidity.Eq(total) {
		t.Fatalf("lower tick liquidity mismatch: %s", lower.Liquidity.Dec())
	}
}

func TestMintInvalidTickRange(t *testing.T) {
	balances := newTestBalances()
	p := newScenarioPool(t, balances)
	callback := fundingCallback(balances)

	cases := []struct {
		name         string
		lower, upper int32
	}{
		{"equal", 100, 100},
		{"reversed", 86129, 84222},
		{"below min", MinTick - 1, 0},
		{"above max", 0, MaxTick + 1},
	}
	for _, tc := range cases {
		_, _, err := p.Mint(testSender, testOwner, tc.lower, tc.upper, uint256.NewInt(1), callback)
		if !errors.Is(err, ErrInvalidTickRange) {
			t.Fatalf("%s: expected ErrInvalidTickRange, got %v", tc.name, err)
		}
	}
}

func TestMintZeroLiquidity(t *testing.T) {
	balances := newTestBalances()
	p := newScenarioPool(t, balances)

	_, _, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, uint256.NewInt(0), fundingCallback(balances))
	if !errors.Is(err, ErrZeroLiquidity) {
		t.Fatalf("expected ErrZeroLiquidity, got %v", err)
	}
	_, _, err = p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, nil, fundingCallback(balances))
	if !errors.Is(err, ErrZeroLiquidity) {
		t.Fatalf("expected ErrZeroLiquidity for nil amount, got %v", err)
	}
}

func TestMintInsufficientInputRollsBack(t *testing.T) {
	balances := newTestBalances()
	p := newScenarioPool(t, balances)
	liquidity := mustAmount(t, scenarioLiquidity)

	// pay token0 in full, shortchange token1 by one unit
	shortCallback := MintCallbackFunc(func(amount0, amount1 *uint256.Int) error {
		balances.credit(testToken0, amount0)
		balances.credit(testToken1, new(uint256.Int).Sub(amount1, uint256.NewInt(1)))
		return nil
	})

	_, _, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, liquidity, shortCallback)
	if !errors.Is(err, ErrInsufficientInput) {
		t.Fatalf("expected ErrInsufficientInput, got %v", err)
	}

	// nothing may have been committed
	if _, ok := p.Tick(scenarioLower); ok {
		t.Fatalf("lower tick persisted after failed settlement")
	}
	if _, ok := p.Tick(scenarioUpper); ok {
		t.Fatalf("upper tick persisted after failed settlement")
	}
	if _, ok := p.Position(testOwner, scenarioLower, scenarioUpper); ok {
		t.Fatalf("position persisted after failed settlement")
	}
	if !p.Liquidity().IsZero() {
		t.Fatalf("global liquidity changed after failed settlement: %s", p.Liquidity().Dec())
	}

	// a correctly funded retry succeeds on the same pool
	if _, _, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, liquidity, fundingCallback(balances)); err != nil {
		t.Fatalf("retry mint failed: %v", err)
	}
}

func TestMintCallbackErrorRollsBack(t *testing.T) {
	balances := newTestBalances()
	p := newScenarioPool(t, balances)

	failing := MintCallbackFunc(func(_, _ *uint256.Int) error {
		return errors.New("payer refused")
	})

	_, _, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, uint256.NewInt(100), failing)
	if err == nil {
		t.Fatalf("expected error from failing callback")
	}
	if !p.Liquidity().IsZero() {
		t.Fatalf("global liquidity changed after failed callback")
	}
}

func TestMintReentrancyFails(t *testing.T) {
	balances := newTestBalances()
	p := newScenarioPool(t, balances)
	liquidity := mustAmount(t, scenarioLiquidity)

	var reentrantErr error
	reentrant := MintCallbackFunc(func(amount0, amount1 *uint256.Int) error {
		_, _, reentrantErr = p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, uint256.NewInt(1), fundingCallback(balances))
		balances.credit(testToken0, amount0)
		balances.credit(testToken1, amount1)
		return nil
	})

	if _, _, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, liquidity, reentrant); err != nil {
		t.Fatalf("outer mint failed: %v", err)
	}
	if !errors.Is(reentrantErr, ErrPoolLocked) {
		t.Fatalf("expected reentrant mint to fail with ErrPoolLocked, got %v", reentrantErr)
	}

	// only the outer mint may be accounted for
	if !p.Liquidity().Eq(liquidity) {
		t.Fatalf("global liquidity mismatch after reentrant attempt: %s", p.Liquidity().Dec())
	}
}

func TestMintOverflowRejected(t *testing.T) {
	balances := newTestBalances()
	p := newScenarioPool(t, balances)
	callback := fundingCallback(balances)

	max128 := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))
	if _, _, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, max128, callback); err != nil {
		t.Fatalf("seed mint failed: %v", err)
	}

	_, _, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, uint256.NewInt(1), callback)
	if !errors.Is(err, ErrLiquidityOverflow) {
		t.Fatalf("expected ErrLiquidityOverflow, got %v", err)
	}

	// rejected mint must not leave partial tick updates behind
	lower, _ := p.Tick(scenarioLower)
	if !lower.Liquidity.Eq(max128) {
		t.Fatalf("lower tick changed after rejected mint: %s", lower.Liquidity.Dec())
	}
}

func TestNewPoolValidation(t *testing.T) {
	balances := newTestBalances()

	if _, err := New(Config{
		Address:      testPoolAddr,
		Token0:       testToken0,
		Token1:       testToken0,
		SqrtPriceX96: uint256.NewInt(1),
		Deposits:     StaticDeposit{Amount0: uint256.NewInt(1), Amount1: uint256.NewInt(1)},
		Balances:     balances,
	}); err == nil {
		t.Fatalf("expected error for identical tokens")
	}

	if _, err := New(Config{
		Address:      testPoolAddr,
		Token0:       testToken0,
		Token1:       testToken1,
		SqrtPriceX96: uint256.NewInt(0),
		Deposits:     StaticDeposit{Amount0: uint256.NewInt(1), Amount1: uint256.NewInt(1)},
		Balances:     balances,
	}); err == nil {
		t.Fatalf("expected error for zero sqrt price")
	}
}

func TestMintNotification(t *testing.T) {
	balances := newTestBalances()

	var events []MintEvent
	p, err := New(Config{
		Address:      testPoolAddr,
		Token0:       testToken0,
		Token1:       testToken1,
		SqrtPriceX96: mustAmount(t, scenarioSqrtPrice),
		Tick:         scenarioTick,
		Deposits: StaticDeposit{
			Amount0: mustAmount(t, scenarioAmount0),
			Amount1: mustAmount(t, scenarioAmount1),
		},
		Balances: balances,
		Notify:   func(event MintEvent) { events = append(events, event) },
	})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	liquidity := mustAmount(t, scenarioLiquidity)
	if _, _, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, liquidity, fundingCallback(balances)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.Sender != testSender || event.Owner != testOwner {
		t.Fatalf("event identity mismatch: %+v", event)
	}
	if event.TickLower != scenarioLower || event.TickUpper != scenarioUpper {
		t.Fatalf("event range mismatch: %+v", event)
	}
	if !event.Amount.Eq(liquidity) || event.Amount0.Dec() != scenarioAmount0 || event.Amount1.Dec() != scenarioAmount1 {
		t.Fatalf("event amounts mismatch: %+v", event)
	}

	// failed mints emit nothing
	if _, _, err := p.Mint(testSender, testOwner, scenarioLower, scenarioUpper, uint256.NewInt(0), fundingCallback(balances)); !errors.Is(err, ErrZeroLiquidity) {
		t.Fatalf("expected ErrZeroLiquidity, got %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("failed mint emitted an event")
	}
}

func TestSlot0Query(t *testing.T) {
	balances := newTestBalances()
	p := newScenarioPool(t, balances)

	slot0 := p.Slot0()
	if slot0.Tick != scenarioTick {
		t.Fatalf("tick mismatch: %d", slot0.Tick)
	}
	if slot0.SqrtPriceX96.Dec() != scenarioSqrtPrice {
		t.Fatalf("sqrt price mismatch: %s", slot0.SqrtPriceX96.Dec())
	}

	// mutating the returned copy must not touch pool state
	slot0.SqrtPriceX96.Clear()
	if p.Slot0().SqrtPriceX96.IsZero() {
		t.Fatalf("slot0 query leaked internal state")
	}
}
