package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alejandrodnm/cbctracker/config"
	"github.com/alejandrodnm/cbctracker/internal/adapters/coingecko"
	"github.com/alejandrodnm/cbctracker/internal/adapters/notify"
	"github.com/alejandrodnm/cbctracker/internal/adapters/storage"
	"github.com/alejandrodnm/cbctracker/internal/application/positions"
	"github.com/alejandrodnm/cbctracker/internal/application/prediction"
	"github.com/alejandrodnm/cbctracker/internal/application/pricing"
	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/alejandrodnm/cbctracker/internal/ports"
)

// app is everything a command needs, built from the config.
type app struct {
	cfg       *config.Config
	kv        ports.KeyValueStore
	engine    *positions.Engine
	predictor *prediction.Random
	notifier  *notify.Console
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer, opts ...positions.Option) (*app, error) {
	kv, err := openKV(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	client := coingecko.NewClient(coingecko.Config{
		BaseURL:    cfg.Oracle.BaseURL,
		APIKey:     cfg.Oracle.APIKey,
		Timeout:    cfg.OracleTimeout(),
		RatePerSec: cfg.Oracle.RequestsPerSecond,
	})
	oracle := pricing.NewOracle(client, cfg.Oracle.Asset, pricing.WithHistoricalAfter(cfg.HistoricalAfter()))
	store := storage.NewPositionStore(kv, cfg.Storage.Namespace, cfg.Storage.Version)

	slog.Debug("app ready",
		"backend", cfg.Storage.Backend,
		"key", store.Key(),
		"asset", cfg.Oracle.Asset,
	)

	return &app{
		cfg:       cfg,
		kv:        kv,
		engine:    positions.New(store, oracle, opts...),
		predictor: prediction.NewRandom(cfg.PredictionDelay()),
		notifier:  notify.NewConsoleWriter(out, time.Now),
	}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

// openKV selects the storage variant: sqlite (local), redis (remote) or memory.
func openKV(ctx context.Context, cfg config.StorageConfig) (ports.KeyValueStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		kv, err := storage.NewSQLiteKV(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %q: %w", cfg.DSN, err)
		}
		return kv, nil
	case config.BackendRedis:
		kv, err := storage.NewRedisKV(ctx, storage.RedisConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLS,
			Hash:       cfg.Redis.Hash,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis %s: %w", cfg.Redis.Addr, err)
		}
		return kv, nil
	case config.BackendMemory:
		slog.Warn("memory backend: positions are lost on exit")
		return storage.NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// parseInstant accepts an ISO-8601 instant; empty means not given.
func parseInstant(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := domain.ParseISO(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// explain turns the error kinds into the messages the mini app shows.
func explain(err error) error {
	switch {
	case errors.Is(err, domain.ErrOracleUnavailable):
		return fmt.Errorf("price oracle unavailable, please pass --price manually: %w", err)
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("position not found or already closed: %w", err)
	}
	return err
}
