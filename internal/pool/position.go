package pool

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// PositionInfo holds one provider's liquidity within one price range.
type PositionInfo struct {
	Liquidity *uint256.Int
}

// PositionKey collapses (owner, lowerTick, upperTick) into a single flat map
// key: Keccak-256 over the packed owner bytes and the two big-endian tick
// indexes, so one storage slot is charged per position.
func PositionKey(owner common.Address, lowerTick, upperTick int32) common.Hash {
	buf := make([]byte, 0, common.AddressLength+8)
	buf = append(buf, owner.Bytes()...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(lowerTick))
	buf = binary.BigEndian.AppendUint32(buf, uint32(upperTick))
	return crypto.Keccak256Hash(buf)
}

// PositionRegistry maps composite position keys to position state. Lookups
// are always by the full (owner, range) triple; there is no enumeration by
// owner alone.
type PositionRegistry struct {
	positions map[common.Hash]PositionInfo
}

func NewPositionRegistry() *PositionRegistry {
	return &PositionRegistry{positions: make(map[common.Hash]PositionInfo)}
}

// Get returns a copy of the position for the triple, creating nothing.
func (r *PositionRegistry) Get(owner common.Address, lowerTick, upperTick int32) (PositionInfo, bool) {
	return r.ByKey(PositionKey(owner, lowerTick, upperTick))
}

// ByKey returns a copy of the position stored under key, if present.
func (r *PositionRegistry) ByKey(key common.Hash) (PositionInfo, bool) {
	info, ok := r.positions[key]
	if !ok {
		return PositionInfo{}, false
	}
	return PositionInfo{Liquidity: info.Liquidity.Clone()}, true
}

// Update adds delta to the position under key, creating it if absent.
func (r *PositionRegistry) Update(key common.Hash, delta *uint256.Int) error {
	next, err := r.updated(key, delta)
	if err != nil {
		return err
	}
	r.positions[key] = next
	return nil
}

func (r *PositionRegistry) updated(key common.Hash, delta *uint256.Int) (PositionInfo, error) {
	current := uint256.NewInt(0)
	if info, ok := r.positions[key]; ok {
		current = info.Liquidity
	}
	next := new(uint256.Int).Add(current, delta)
	if next.BitLen() > 128 {
		return PositionInfo{}, ErrLiquidityOverflow
	}
	return PositionInfo{Liquidity: next}, nil
}

func (r *PositionRegistry) put(key common.Hash, info PositionInfo) {
	r.positions[key] = info
}
