package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisHash is the hash holding every key of the remote backend.
const DefaultRedisHash = "cbctracker:kv"

// RedisConfig holds connection parameters for the remote backend.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	TLSEnabled bool
	Hash       string // defaults to DefaultRedisHash
}

// RedisKV implements ports.KeyValueStore on a single Redis hash, so GetAll
// never has to scan the keyspace.
type RedisKV struct {
	rdb  *redis.Client
	hash string
}

// NewRedisKV connects and pings Redis.
func NewRedisKV(ctx context.Context, cfg RedisConfig) (*RedisKV, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("storage.NewRedisKV: ping %s: %w", cfg.Addr, err)
	}

	hash := cfg.Hash
	if hash == "" {
		hash = DefaultRedisHash
	}
	return &RedisKV{rdb: rdb, hash: hash}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.HGet(ctx, r.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage.RedisKV.Get %q: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.HSet(ctx, r.hash, key, value).Err(); err != nil {
		return fmt.Errorf("storage.RedisKV.Set %q: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.rdb.HDel(ctx, r.hash, key).Err(); err != nil {
		return fmt.Errorf("storage.RedisKV.Delete %q: %w", key, err)
	}
	return nil
}

func (r *RedisKV) GetAll(ctx context.Context) (map[string]string, error) {
	vals, err := r.rdb.HGetAll(ctx, r.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("storage.RedisKV.GetAll: %w", err)
	}
	return vals, nil
}

// Close closes the Redis connection pool.
func (r *RedisKV) Close() error {
	return r.rdb.Close()
}
