package pool

import "github.com/holiman/uint256"

// Global tick bounds; the widest range whose sqrt price still fits an
// unsigned 160-bit Q64.96 value.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// TickInfo holds the aggregate liquidity parked at one tick index.
// Initialized is sticky: it is set on the first deposit touching the tick
// and never cleared, even if liquidity later returns to zero.
type TickInfo struct {
	Initialized bool
	Liquidity   *uint256.Int
}

// TickRegistry maps tick indexes to their liquidity state. Entries are
// created on first touch and never deleted.
type TickRegistry struct {
	ticks map[int32]TickInfo
}

func NewTickRegistry() *TickRegistry {
	return &TickRegistry{ticks: make(map[int32]TickInfo)}
}

// Get returns a copy of the tick state, if present.
func (r *TickRegistry) Get(index int32) (TickInfo, bool) {
	info, ok := r.ticks[index]
	if !ok {
		return TickInfo{}, false
	}
	return TickInfo{Initialized: info.Initialized, Liquidity: info.Liquidity.Clone()}, true
}

// Update adds delta to the liquidity at index, initializing the tick if it
// carried none. The caller has already validated the index against the
// global bounds.
func (r *TickRegistry) Update(index int32, delta *uint256.Int) error {
	next, err := r.updated(index, delta)
	if err != nil {
		return err
	}
	r.ticks[index] = next
	return nil
}

// Remove subtracts delta from the liquidity at index. The tick stays
// initialized at zero liquidity.
func (r *TickRegistry) Remove(index int32, delta *uint256.Int) error {
	current := r.liquidityAt(index)
	if current.Lt(delta) {
		return ErrLiquidityUnderflow
	}
	next := new(uint256.Int).Sub(current, delta)
	r.ticks[index] = TickInfo{Initialized: true, Liquidity: next}
	return nil
}

// updated computes the post-update state without writing it, so callers can
// stage a change and commit later via put.
func (r *TickRegistry) updated(index int32, delta *uint256.Int) (TickInfo, error) {
	next := new(uint256.Int).Add(r.liquidityAt(index), delta)
	if next.BitLen() > 128 {
		return TickInfo{}, ErrLiquidityOverflow
	}
	return TickInfo{Initialized: true, Liquidity: next}, nil
}

func (r *TickRegistry) put(index int32, info TickInfo) {
	r.ticks[index] = info
}

func (r *TickRegistry) liquidityAt(index int32) *uint256.Int {
	if info, ok := r.ticks[index]; ok {
		return info.Liquidity
	}
	return uint256.NewInt(0)
}
