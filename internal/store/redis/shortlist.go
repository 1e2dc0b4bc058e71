package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/boxdpick/internal/shortlist"
)

// ShortlistBackend persists one shortlist under a single Redis key.
// The value never expires: it is the durable copy of the user's picks.
type ShortlistBackend struct {
	client redis.UniversalClient
	key    string
}

// NewShortlistBackend creates a backend storing the shortlist called name
func NewShortlistBackend(client redis.UniversalClient, name string) *ShortlistBackend {
	return &ShortlistBackend{
		client: client,
		key:    ShortlistKey(name),
	}
}

// Key returns the Redis key in use
func (b *ShortlistBackend) Key() string {
	return b.key
}

// Read returns the serialized shortlist, or shortlist.ErrNotFound
func (b *ShortlistBackend) Read(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortlist.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shortlist: %w", err)
	}
	return data, nil
}

// Write overwrites the serialized shortlist
func (b *ShortlistBackend) Write(ctx context.Context, data []byte) error {
	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save shortlist: %w", err)
	}
	return nil
}

// Ping checks the connection, used by the readiness probe
func (b *ShortlistBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
