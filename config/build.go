// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-core-stack/keypool/db"
	"github.com/go-core-stack/keypool/errors"
	"github.com/go-core-stack/keypool/keystore"
	"github.com/go-core-stack/keypool/rate"
)

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a text logger writing to w at the given level,
// unknown levels log at info
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

// BuildPool creates a pool holding the configured keys in file order,
// options given are applied after the configured pool name
func BuildPool(cfg *Config, opts ...rate.Option) (*rate.Pool, error) {
	if cfg.Pool != "" {
		opts = append([]rate.Option{rate.WithName(cfg.Pool)}, opts...)
	}
	pool := rate.NewPool(opts...)
	for i := range cfg.Keys {
		key, err := newKey(&cfg.Keys[i])
		if err != nil {
			return nil, errors.Wrapf(errors.InvalidArgument, "keys[%d]: %s", i, err)
		}
		if err := pool.Add(key); err != nil {
			return nil, errors.Wrapf(errors.GetErrCode(err), "keys[%d]: %s", i, err)
		}
	}
	return pool, nil
}

func newKey(kc *KeyConfig) (*rate.Key, error) {
	policy, err := kc.Policy()
	if err != nil {
		return nil, err
	}
	return rate.NewKey(kc.Identity, policy)
}

// OpenCollection opens the collection holding key definitions, the
// returned function releases the connection to the store
func OpenCollection(ctx context.Context, cfg *StoreConfig, logger *slog.Logger) (db.StoreCollection, func(context.Context) error, error) {
	switch cfg.Driver {
	case StoreMemory, "":
		return db.NewMemoryCollection(), func(context.Context) error { return nil }, nil
	case StoreMongo:
		client, err := db.NewMongoClient(cfg.Mongo(), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := client.HealthCheck(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return client.GetCollection(cfg.Database, cfg.Collection), client.Disconnect, nil
	default:
		return nil, nil, errors.Wrapf(errors.InvalidArgument, "unknown store driver %q", cfg.Driver)
	}
}

// Seed stores the configured keys not yet known to the store, the stored
// definition of an existing key is kept
func Seed(ctx context.Context, cfg *Config, store *keystore.Store) error {
	for i := range cfg.Keys {
		kc := &cfg.Keys[i]
		policy, err := kc.Policy()
		if err != nil {
			return errors.Wrapf(errors.InvalidArgument, "keys[%d]: %s", i, err)
		}
		if err := store.Insert(ctx, kc.Identity, policy); err != nil && !errors.IsAlreadyExists(err) {
			return err
		}
	}
	return nil
}
