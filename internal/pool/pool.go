package pool

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Slot0 is the packed current-price state of the market: the sqrt price as
// an unsigned Q64.96 value and the tick bucket containing it. Keeping the
// two consistent is the job of the (out of scope) swap path; the pool only
// sets them at construction.
type Slot0 struct {
	SqrtPriceX96 *uint256.Int
	Tick         int32
}

// Config carries everything needed to construct a Pool.
type Config struct {
	// Address identifies the pool itself as a balance holder.
	Address common.Address
	// Token0 and Token1 identify the pair; the caller supplies them
	// canonically ordered.
	Token0 common.Address
	Token1 common.Address

	SqrtPriceX96 *uint256.Int
	Tick         int32

	Deposits DepositCalc
	Balances BalanceSource

	// Notify, if set, receives a MintEvent after each committed mint.
	Notify func(MintEvent)
}

// Pool is the authoritative accounting state of one market: the pair, the
// current price, total active liquidity, and the tick and position
// registries. All mutating access is serialized per pool.
type Pool struct {
	address common.Address
	token0  common.Address
	token1  common.Address

	mu   sync.Mutex
	busy bool

	slot0     Slot0
	liquidity *uint256.Int
	ticks     *TickRegistry
	positions *PositionRegistry

	deposits DepositCalc
	balances BalanceSource
	notify   func(MintEvent)
}

// MintEvent is the observational record of a committed mint.
type MintEvent struct {
	Sender    common.Address
	Owner     common.Address
	TickLower int32
	TickUpper int32
	Amount    *uint256.Int
	Amount0   *uint256.Int
	Amount1   *uint256.Int
}

func New(cfg Config) (*Pool, error) {
	if cfg.Token0 == cfg.Token1 {
		return nil, fmt.Errorf("token0 and token1 must be distinct")
	}
	if cfg.SqrtPriceX96 == nil || cfg.SqrtPriceX96.IsZero() {
		return nil, fmt.Errorf("initial sqrt price is required")
	}
	if cfg.Deposits == nil {
		return nil, fmt.Errorf("deposit calculator is required")
	}
	if cfg.Balances == nil {
		return nil, fmt.Errorf("balance source is required")
	}

	return &Pool{
		address:   cfg.Address,
		token0:    cfg.Token0,
		token1:    cfg.Token1,
		slot0:     Slot0{SqrtPriceX96: cfg.SqrtPriceX96.Clone(), Tick: cfg.Tick},
		liquidity: uint256.NewInt(0),
		ticks:     NewTickRegistry(),
		positions: NewPositionRegistry(),
		deposits:  cfg.Deposits,
		balances:  cfg.Balances,
		notify:    cfg.Notify,
	}, nil
}

// Mint credits owner with amount liquidity over [lowerTick, upperTick] and
// collects the required token deposits from the caller through cb. Either
// the whole operation commits or no state changes at all: registry updates
// are staged against the current state and written only after settlement
// verification succeeds.
//
// The callback runs with the pool's busy guard held, so any reentrant
// operation it attempts fails with ErrPoolLocked rather than observing
// half-applied state.
func (p *Pool) Mint(sender, owner common.Address, lowerTick, upperTick int32, amount *uint256.Int, cb MintCallback) (*uint256.Int, *uint256.Int, error) {
	if lowerTick >= upperTick || lowerTick < MinTick || upperTick > MaxTick {
		return nil, nil, ErrInvalidTickRange
	}
	if amount == nil || amount.IsZero() {
		return nil, nil, ErrZeroLiquidity
	}
	if cb == nil {
		return nil, nil, fmt.Errorf("mint callback is required")
	}

	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return nil, nil, ErrPoolLocked
	}
	p.busy = true

	staged, err := p.stageMint(owner, lowerTick, upperTick, amount)
	if err != nil {
		p.busy = false
		p.mu.Unlock()
		return nil, nil, err
	}
	p.mu.Unlock()

	// Control transfers to untrusted code here. Nothing has been committed
	// yet; the busy guard keeps the pool exclusive until we finish.
	if err := p.collectPayment(staged.amount0, staged.amount1, cb); err != nil {
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
		return nil, nil, err
	}

	p.mu.Lock()
	p.ticks.put(lowerTick, staged.lowerInfo)
	p.ticks.put(upperTick, staged.upperInfo)
	p.positions.put(staged.key, staged.position)
	p.liquidity = staged.liquidity
	p.busy = false
	p.mu.Unlock()

	if p.notify != nil {
		p.notify(MintEvent{
			Sender:    sender,
			Owner:     owner,
			TickLower: lowerTick,
			TickUpper: upperTick,
			Amount:    amount.Clone(),
			Amount0:   staged.amount0.Clone(),
			Amount1:   staged.amount1.Clone(),
		})
	}

	return staged.amount0, staged.amount1, nil
}

// mintStaging holds the post-mint state computed up front and committed
// only after settlement.
type mintStaging struct {
	lowerInfo TickInfo
	upperInfo TickInfo
	key       common.Hash
	position  PositionInfo
	liquidity *uint256.Int
	amount0   *uint256.Int
	amount1   *uint256.Int
}

func (p *Pool) stageMint(owner common.Address, lowerTick, upperTick int32, amount *uint256.Int) (mintStaging, error) {
	lowerInfo, err := p.ticks.updated(lowerTick, amount)
	if err != nil {
		return mintStaging{}, err
	}
	upperInfo, err := p.ticks.updated(upperTick, amount)
	if err != nil {
		return mintStaging{}, err
	}

	key := PositionKey(owner, lowerTick, upperTick)
	position, err := p.positions.updated(key, amount)
	if err != nil {
		return mintStaging{}, err
	}

	liquidity := new(uint256.Int).Add(p.liquidity, amount)
	if liquidity.BitLen() > 128 {
		return mintStaging{}, ErrLiquidityOverflow
	}

	amount0, amount1, err := p.deposits.Amounts(p.slot0Copy(), lowerTick, upperTick, amount)
	if err != nil {
		return mintStaging{}, fmt.Errorf("deposit amounts: %w", err)
	}

	return mintStaging{
		lowerInfo: lowerInfo,
		upperInfo: upperInfo,
		key:       key,
		position:  position,
		liquidity: liquidity,
		amount0:   amount0,
		amount1:   amount1,
	}, nil
}

// Address returns the pool's own balance-holder identity.
func (p *Pool) Address() common.Address { return p.address }

// Token0 returns the first asset of the pair.
func (p *Pool) Token0() common.Address { return p.token0 }

// Token1 returns the second asset of the pair.
func (p *Pool) Token1() common.Address { return p.token1 }

// Slot0 returns a copy of the current price state.
func (p *Pool) Slot0() Slot0 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slot0Copy()
}

// Liquidity returns a copy of the total active liquidity.
func (p *Pool) Liquidity() *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liquidity.Clone()
}

// Tick returns a copy of the state at one tick index.
func (p *Pool) Tick(index int32) (TickInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks.Get(index)
}

// Position returns a copy of the position for the (owner, range) triple.
func (p *Pool) Position(owner common.Address, lowerTick, upperTick int32) (PositionInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positions.Get(owner, lowerTick, upperTick)
}

// PositionByKey returns a copy of the position stored under a composite key.
func (p *Pool) PositionByKey(key common.Hash) (PositionInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positions.ByKey(key)
}

func (p *Pool) slot0Copy() Slot0 {
	return Slot0{SqrtPriceX96: p.slot0.SqrtPriceX96.Clone(), Tick: p.slot0.Tick}
}
