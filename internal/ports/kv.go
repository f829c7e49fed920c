package ports

import "context"

// KeyValueStore is the raw backend the position book is serialised into.
// Implementations: SQLite (local), Redis (remote), memory (dry-run).
type KeyValueStore interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
	Close() error
}
