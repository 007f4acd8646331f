// Package lock provides a Redis-backed lock that keeps two harvests from
// writing the same output store at once.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockHeld is returned by Acquire when another owner holds the lock.
	ErrLockHeld = errors.New("run lock is held by another owner")
	// ErrNotOwner is returned by Release when the caller no longer owns the lock.
	ErrNotOwner = errors.New("run lock is not held by this owner")
	// ErrEmptyAddress is returned when the Redis address is not configured.
	ErrEmptyAddress = errors.New("redis address is required")
)

const connectionTimeout = 5 * time.Second

// releaseScript deletes the key only when it still holds the caller's value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config holds Redis connection configuration.
type Config struct {
	Address  string
	Password string
	DB       int
}

// NewClient creates a Redis client and verifies the connection.
func NewClient(cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Lock is a single-key mutex with an expiry. The expiry frees the lock when
// its owner dies without releasing it.
type Lock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// New creates a Lock on key.
func New(client redis.Cmdable, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, ttl: ttl}
}

// Acquire takes the lock for owner.
func (l *Lock) Acquire(ctx context.Context, owner string) error {
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Release frees the lock if owner still holds it.
func (l *Lock) Release(ctx context.Context, owner string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, owner).Int()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrNotOwner
	}
	return nil
}

// Owner returns the current holder, or "" when the lock is free.
func (l *Lock) Owner(ctx context.Context) (string, error) {
	owner, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read lock %s: %w", l.key, err)
	}
	return owner, nil
}
