// Package config loads server configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds the runtime configuration for the server.
type Config struct {
	ListenAddr   string
	DatabasePath string

	StartingBalance  decimal.Decimal
	MaxBet           decimal.Decimal
	DealerHitsSoft17 bool

	CleanupInterval time.Duration
	Retention       time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		DatabasePath:    getEnv("DATABASE_PATH", "./blackjack.db"),
		CleanupInterval: time.Hour,
		ShutdownTimeout: 10 * time.Second,
	}

	var err error
	if cfg.StartingBalance, err = getDecimal("STARTING_BALANCE", decimal.NewFromInt(100)); err != nil {
		return nil, err
	}
	if cfg.MaxBet, err = getDecimal("MAX_BET", decimal.NewFromInt(500)); err != nil {
		return nil, err
	}
	if cfg.DealerHitsSoft17, err = getBool("DEALER_HITS_SOFT_17", false); err != nil {
		return nil, err
	}
	if cfg.Retention, err = getDuration("GAME_RETENTION", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval, err = getDuration("CLEANUP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.StartingBalance.IsNegative() {
		return nil, fmt.Errorf("STARTING_BALANCE must not be negative")
	}
	if cfg.MaxBet.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("MAX_BET must be positive")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDecimal(key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
