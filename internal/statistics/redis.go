package statistics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the per-player hashes.
const DefaultKeyPrefix = "lantern:stats:"

// RedisStore keeps one hash per player, one field per counter.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisStoreWithClient(client, opts.KeyPrefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(playerID string) string {
	return r.prefix + playerID
}

func (r *RedisStore) Record(ctx context.Context, playerID string, c Counter) error {
	if err := r.client.HIncrBy(ctx, r.key(playerID), c.String(), 1).Err(); err != nil {
		return fmt.Errorf("failed to increment %s for %s: %w", c, playerID, err)
	}
	return nil
}

func (r *RedisStore) Stats(ctx context.Context, playerID string) (PlayerStats, error) {
	fields, err := r.client.HGetAll(ctx, r.key(playerID)).Result()
	if err != nil {
		return PlayerStats{}, fmt.Errorf("failed to read stats for %s: %w", playerID, err)
	}
	var s PlayerStats
	for name, raw := range fields {
		c, err := ParseCounter(name)
		if err != nil {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return PlayerStats{}, fmt.Errorf("bad %s value %q for %s: %w", name, raw, playerID, err)
		}
		s.Add(c, n)
	}
	return s, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
