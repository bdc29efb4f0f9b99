package resolver

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when a key lock cannot be taken in time.
var ErrLockNotAcquired = errors.New("resolver: key lock not acquired")

// KeyLocker serializes the lookup-then-write step per dedupe key.
type KeyLocker interface {
	// Lock blocks until the key is held or ctx is done. The returned func
	// releases it.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// StripedLocker hashes keys onto a fixed set of mutexes. Two keys may share a
// stripe, which only costs throughput.
type StripedLocker struct {
	stripes []sync.Mutex
}

const DefaultStripes = 256

func NewStripedLocker(n int) *StripedLocker {
	if n <= 0 {
		n = DefaultStripes
	}
	return &StripedLocker{stripes: make([]sync.Mutex, n)}
}

func (l *StripedLocker) Lock(ctx context.Context, key string) (func(), error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &l.stripes[h.Sum32()%uint32(len(l.stripes))]

	acquired := make(chan struct{})
	go func() {
		mu.Lock()
		close(acquired)
	}()
	select {
	case <-acquired:
		return mu.Unlock, nil
	case <-ctx.Done():
		// hand the mutex back once the goroutine gets it
		go func() {
			<-acquired
			mu.Unlock()
		}()
		return nil, ctx.Err()
	}
}

const (
	DefaultLockTTL        = 30 * time.Second
	DefaultLockRetryDelay = 50 * time.Millisecond
	DefaultLockMaxRetries = 100
	lockKeyPrefix         = "ingest:lock:"
)

// LockConfig configures RedisLocker.
type LockConfig struct {
	TTL        time.Duration
	RetryDelay time.Duration
	MaxRetries int
}

// RedisLocker takes a SET NX lock per key so several ingest processes can
// share one store.
type RedisLocker struct {
	client *redis.Client
	cfg    LockConfig
	unlock *redis.Script
}

func NewRedisLocker(client *redis.Client, cfg LockConfig) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultLockTTL
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultLockRetryDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultLockMaxRetries
	}
	return &RedisLocker{
		client: client,
		cfg:    cfg,
		unlock: redis.NewScript(`
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	token := uuid.NewString()

	for i := range l.cfg.MaxRetries {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			return func() {
				// release on a fresh context so a cancelled run still frees the key
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = l.unlock.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
			}, nil
		}
		if i < l.cfg.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.cfg.RetryDelay):
			}
		}
	}
	return nil, ErrLockNotAcquired
}
