package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidityCore/internal/config"
	"liquidityCore/internal/pool"
	"liquidityCore/internal/replay"
	"liquidityCore/internal/storage"
	"liquidityCore/internal/storage/postgres"
	"liquidityCore/internal/token"
)

func main() {
	root := &cobra.Command{
		Use:          "poold",
		Short:        "Concentrated-liquidity pool accounting engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay mint instructions against a pool",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("pool-address", "", "pool balance-holder address")
	replayCmd.Flags().String("token0", "", "token0 address")
	replayCmd.Flags().String("token1", "", "token1 address")
	replayCmd.Flags().String("sqrt-price", "", "initial sqrt price (Q64.96, decimal)")
	replayCmd.Flags().Int32("tick", 0, "initial tick")
	replayCmd.Flags().String("deposit-amount0", "", "static deposit amount of token0 (decimal)")
	replayCmd.Flags().String("deposit-amount1", "", "static deposit amount of token1 (decimal)")
	replayCmd.Flags().String("instructions", "./data/mints.jsonl", "mint instructions JSONL path")
	replayCmd.Flags().String("journal", "./data/journal.jsonl", "output journal JSONL path")
	replayCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN for snapshots (optional)")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a mint journal",
		RunE:  runInspect,
	}

	inspectCmd.Flags().String("journal", "./data/journal.jsonl", "journal JSONL path")
	inspectCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(inspectCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	statePool, ledger, err := buildPool(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal := storage.NewJsonlJournal(cfg.Journal)
	runner := replay.NewRunner(replay.RunConfig{
		InstructionsPath:  cfg.Instructions,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
	}, statePool, ledger, journal, logger)

	logger.Info("replay start",
		zap.String("pool", cfg.PoolAddress),
		zap.String("token0", cfg.Token0),
		zap.String("token1", cfg.Token1),
		zap.String("instructions", cfg.Instructions),
		zap.String("journal", cfg.Journal),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	if err := runner.Run(ctx); err != nil {
		return err
	}

	if cfg.PgDSN != "" {
		if err := saveSnapshot(ctx, cfg.PgDSN, runner, logger); err != nil {
			return err
		}
	}

	return nil
}

func buildPool(cfg config.Config, logger *zap.Logger) (*pool.Pool, *token.Ledger, error) {
	poolAddress, err := replay.ParseAddress(cfg.PoolAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("pool address: %w", err)
	}
	token0, err := replay.ParseAddress(cfg.Token0)
	if err != nil {
		return nil, nil, fmt.Errorf("token0: %w", err)
	}
	token1, err := replay.ParseAddress(cfg.Token1)
	if err != nil {
		return nil, nil, fmt.Errorf("token1: %w", err)
	}
	sqrtPrice, err := replay.ParseAmount(cfg.SqrtPriceX96)
	if err != nil {
		return nil, nil, fmt.Errorf("sqrt price: %w", err)
	}
	amount0, err := replay.ParseAmount(cfg.DepositAmount0)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit amount0: %w", err)
	}
	amount1, err := replay.ParseAmount(cfg.DepositAmount1)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit amount1: %w", err)
	}

	ledger := token.NewLedger()
	statePool, err := pool.New(pool.Config{
		Address:      poolAddress,
		Token0:       token0,
		Token1:       token1,
		SqrtPriceX96: sqrtPrice,
		Tick:         cfg.Tick,
		Deposits:     pool.StaticDeposit{Amount0: amount0, Amount1: amount1},
		Balances:     ledger,
		Notify: func(event pool.MintEvent) {
			logger.Debug("mint committed",
				zap.String("owner", event.Owner.Hex()),
				zap.Int32("tick_lower", event.TickLower),
				zap.Int32("tick_upper", event.TickUpper),
				zap.String("amount", event.Amount.Dec()),
			)
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build pool: %w", err)
	}

	return statePool, ledger, nil
}

func saveSnapshot(ctx context.Context, dsn string, runner *replay.Runner, logger *zap.Logger) error {
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	snapshot, positions, ticks := runner.Snapshot()
	if err := store.SavePoolSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("save pool snapshot: %w", err)
	}
	if err := store.UpsertPositions(ctx, positions); err != nil {
		return fmt.Errorf("save positions: %w", err)
	}
	if err := store.UpsertTicks(ctx, ticks); err != nil {
		return fmt.Errorf("save ticks: %w", err)
	}

	logger.Info("snapshot saved",
		zap.String("pool", snapshot.Address),
		zap.String("liquidity", snapshot.Liquidity),
		zap.Int("positions", len(positions)),
		zap.Int("ticks", len(ticks)),
	)
	return nil
}

func runInspect(cmd *cobra.Command, _ []string) error {
	journalPath, _ := cmd.Flags().GetString("journal")

	records, err := storage.ReadMints(journalPath)
	if err != nil {
		return err
	}

	summary, err := replay.Summarize(records)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
