package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	PoolAddress  string
	Token0       string
	Token1       string
	SqrtPriceX96 string
	Tick         int32

	DepositAmount0 string
	DepositAmount1 string

	Instructions      string
	Journal           string
	Checkpoint        string
	CheckpointEnabled bool

	PgDSN    string
	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("instructions", "./data/mints.jsonl")
	v.SetDefault("journal", "./data/journal.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		PoolAddress:       v.GetString("pool-address"),
		Token0:            v.GetString("token0"),
		Token1:            v.GetString("token1"),
		SqrtPriceX96:      v.GetString("sqrt-price"),
		Tick:              v.GetInt32("tick"),
		DepositAmount0:    v.GetString("deposit-amount0"),
		DepositAmount1:    v.GetString("deposit-amount1"),
		Instructions:      v.GetString("instructions"),
		Journal:           v.GetString("journal"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		PgDSN:             v.GetString("pg-dsn"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}
