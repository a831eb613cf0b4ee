package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityCore/internal/model"
)

// Store provides Postgres persistence for pool snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SavePoolSnapshot inserts or updates the pool-level snapshot row.
func (s *Store) SavePoolSnapshot(ctx context.Context, snapshot model.PoolSnapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pool_snapshots (
			pool_address, token0, token1, sqrt_price_x96, tick, liquidity, taken_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (pool_address)
		DO UPDATE SET
			token0 = EXCLUDED.token0,
			token1 = EXCLUDED.token1,
			sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
			tick = EXCLUDED.tick,
			liquidity = EXCLUDED.liquidity,
			taken_at = EXCLUDED.taken_at,
			updated_at = now()
	`,
		snapshot.Address,
		snapshot.Token0,
		snapshot.Token1,
		snapshot.SqrtPriceX96,
		snapshot.Tick,
		snapshot.Liquidity,
		snapshot.TakenAt,
	)
	return err
}

// UpsertPositions inserts or updates position rows.
func (s *Store) UpsertPositions(ctx context.Context, positions []model.PositionRow) error {
	if len(positions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, position := range positions {
		batch.Queue(`
			INSERT INTO positions (
				pool_address, position_key, owner, tick_lower, tick_upper, liquidity, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (pool_address, position_key)
			DO UPDATE SET
				owner = EXCLUDED.owner,
				tick_lower = EXCLUDED.tick_lower,
				tick_upper = EXCLUDED.tick_upper,
				liquidity = EXCLUDED.liquidity,
				updated_at = now()
		`,
			position.PoolAddress,
			position.Key,
			position.Owner,
			position.TickLower,
			position.TickUpper,
			position.Liquidity,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range positions {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertTicks inserts or updates tick rows.
func (s *Store) UpsertTicks(ctx context.Context, ticks []model.TickRow) error {
	if len(ticks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, tick := range ticks {
		batch.Queue(`
			INSERT INTO ticks (
				pool_address, tick_index, initialized, liquidity, created_at, updated_at
			) VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (pool_address, tick_index)
			DO UPDATE SET
				initialized = EXCLUDED.initialized,
				liquidity = EXCLUDED.liquidity,
				updated_at = now()
		`,
			tick.PoolAddress,
			tick.TickIndex,
			tick.Initialized,
			tick.Liquidity,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range ticks {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
