package snapshot

import (
	"context"
	"fmt"
)

// kvStore is the consumer interface for the redis-backed snapshot (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// KVBackend stores the snapshot under a single key in a key-value store.
type KVBackend struct {
	store kvStore
	key   string
}

func NewKVBackend(store kvStore, key string) *KVBackend {
	return &KVBackend{store: store, key: key}
}

func (b *KVBackend) Save(ctx context.Context, data []byte) error {
	if err := b.store.Set(ctx, b.key, data); err != nil {
		return fmt.Errorf("set %s: %w", b.key, err)
	}
	return nil
}

func (b *KVBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := b.store.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", b.key, err)
	}
	return data, nil
}
