package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityCore/internal/model"
	"liquidityCore/internal/pool"
	"liquidityCore/internal/storage"
	"liquidityCore/internal/token"
)

// RunConfig holds runtime settings for the replay.
type RunConfig struct {
	InstructionsPath  string
	CheckpointPath    string
	CheckpointEnabled bool
}

// Runner applies journaled mint instructions against a pool and records the
// outcomes. Each instruction's sender is faucet-funded on the ledger with
// exactly the amounts the pool asks for; the settlement callback then moves
// those funds to the pool, standing in for the external transfer capability.
type Runner struct {
	cfg        RunConfig
	pool       *pool.Pool
	ledger     *token.Ledger
	journal    storage.Journal
	logger     *zap.Logger
	checkpoint *CheckpointStore

	// touched positions and ticks, for snapshots
	positions map[common.Hash]model.PositionRow
	tickSet   map[int32]struct{}
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, statePool *pool.Pool, ledger *token.Ledger, journal storage.Journal, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		pool:       statePool,
		ledger:     ledger,
		journal:    journal,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		positions:  make(map[common.Hash]model.PositionRow),
		tickSet:    make(map[int32]struct{}),
	}
}

// Run executes the replay loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("pool is nil")
	}
	if r.ledger == nil {
		return fmt.Errorf("ledger is nil")
	}
	if r.journal == nil {
		return fmt.Errorf("journal is nil")
	}

	instructions, err := storage.ReadInstructions(r.cfg.InstructionsPath)
	if err != nil {
		return err
	}

	var lastApplied uint64
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok {
			lastApplied = cp.LastApplied
			r.logger.Info("resume from checkpoint", zap.Uint64("last_applied", lastApplied))
		}
	}

	for i, instruction := range instructions {
		sequence := uint64(i) + 1
		if sequence <= lastApplied {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := r.apply(sequence, instruction)
		if err != nil {
			return fmt.Errorf("apply instruction %d: %w", sequence, err)
		}

		if err := r.journal.AppendMints([]model.MintRecord{record}); err != nil {
			return fmt.Errorf("journal mint: %w", err)
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(sequence); err != nil {
				return err
			}
		}

		r.logger.Info("mint applied",
			zap.Uint64("sequence", sequence),
			zap.String("owner", instruction.Owner),
			zap.Int32("tick_lower", instruction.TickLower),
			zap.Int32("tick_upper", instruction.TickUpper),
			zap.String("amount", instruction.Amount),
			zap.String("amount0", record.Amount0),
			zap.String("amount1", record.Amount1),
		)
	}

	return nil
}

func (r *Runner) apply(sequence uint64, instruction model.MintInstruction) (model.MintRecord, error) {
	sender, err := ParseAddress(instruction.Sender)
	if err != nil {
		return model.MintRecord{}, err
	}
	owner, err := ParseAddress(instruction.Owner)
	if err != nil {
		return model.MintRecord{}, err
	}
	amount, err := ParseAmount(instruction.Amount)
	if err != nil {
		return model.MintRecord{}, err
	}

	callback := pool.MintCallbackFunc(func(amount0, amount1 *uint256.Int) error {
		return r.fundAndPay(sender, amount0, amount1)
	})

	amount0, amount1, err := r.pool.Mint(sender, owner, instruction.TickLower, instruction.TickUpper, amount, callback)
	if err != nil {
		return model.MintRecord{}, err
	}

	r.trackPosition(owner, instruction.TickLower, instruction.TickUpper)
	r.tickSet[instruction.TickLower] = struct{}{}
	r.tickSet[instruction.TickUpper] = struct{}{}

	return model.MintRecord{
		Sequence:  sequence,
		Sender:    sender.Hex(),
		Owner:     owner.Hex(),
		TickLower: instruction.TickLower,
		TickUpper: instruction.TickUpper,
		Amount:    amount.Dec(),
		Amount0:   amount0.Dec(),
		Amount1:   amount1.Dec(),
		AppliedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}

func (r *Runner) fundAndPay(sender common.Address, amount0, amount1 *uint256.Int) error {
	if !amount0.IsZero() {
		if err := r.ledger.Mint(r.pool.Token0(), sender, amount0); err != nil {
			return err
		}
		if err := r.ledger.Transfer(r.pool.Token0(), sender, r.pool.Address(), amount0); err != nil {
			return err
		}
	}
	if !amount1.IsZero() {
		if err := r.ledger.Mint(r.pool.Token1(), sender, amount1); err != nil {
			return err
		}
		if err := r.ledger.Transfer(r.pool.Token1(), sender, r.pool.Address(), amount1); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) trackPosition(owner common.Address, lowerTick, upperTick int32) {
	key := pool.PositionKey(owner, lowerTick, upperTick)
	r.positions[key] = model.PositionRow{
		PoolAddress: r.pool.Address().Hex(),
		Key:         key.Hex(),
		Owner:       owner.Hex(),
		TickLower:   lowerTick,
		TickUpper:   upperTick,
	}
}

// Snapshot materializes the pool state touched by this replay into
// persistence rows.
func (r *Runner) Snapshot() (model.PoolSnapshot, []model.PositionRow, []model.TickRow) {
	slot0 := r.pool.Slot0()
	snapshot := model.PoolSnapshot{
		Address:      r.pool.Address().Hex(),
		Token0:       r.pool.Token0().Hex(),
		Token1:       r.pool.Token1().Hex(),
		SqrtPriceX96: slot0.SqrtPriceX96.Dec(),
		Tick:         slot0.Tick,
		Liquidity:    r.pool.Liquidity().Dec(),
		TakenAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}

	positions := make([]model.PositionRow, 0, len(r.positions))
	for _, row := range r.positions {
		owner := common.HexToAddress(row.Owner)
		if info, ok := r.pool.Position(owner, row.TickLower, row.TickUpper); ok {
			row.Liquidity = info.Liquidity.Dec()
		}
		positions = append(positions, row)
	}

	ticks := make([]model.TickRow, 0, len(r.tickSet))
	for index := range r.tickSet {
		info, ok := r.pool.Tick(index)
		if !ok {
			continue
		}
		ticks = append(ticks, model.TickRow{
			PoolAddress: r.pool.Address().Hex(),
			TickIndex:   index,
			Initialized: info.Initialized,
			Liquidity:   info.Liquidity.Dec(),
		})
	}

	return snapshot, positions, ticks
}
