package resolver_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ingest-go/internal/models"
	"job-ingest-go/internal/resolver"
	"job-ingest-go/internal/salary"
	"job-ingest-go/internal/storage/memory"
)

func TestStripedLockerSerializesKey(t *testing.T) {
	l := resolver.NewStripedLocker(8)
	var inside, maxInside int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "k")
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestStripedLockerHonoursContext(t *testing.T) {
	l := resolver.NewStripedLocker(1)
	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "b")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)
	unlock2()
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLocker(t *testing.T) {
	mr, client := newRedis(t)
	l := resolver.NewRedisLocker(client, resolver.LockConfig{
		TTL:        5 * time.Second,
		RetryDelay: time.Millisecond,
		MaxRetries: 3,
	})
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "acme::engineer::remote")
	require.NoError(t, err)
	assert.True(t, mr.Exists("ingest:lock:acme::engineer::remote"))
	assert.Equal(t, 5*time.Second, mr.TTL("ingest:lock:acme::engineer::remote"))

	_, err = l.Lock(ctx, "acme::engineer::remote")
	require.ErrorIs(t, err, resolver.ErrLockNotAcquired)

	unlock()
	assert.False(t, mr.Exists("ingest:lock:acme::engineer::remote"))

	unlock, err = l.Lock(ctx, "acme::engineer::remote")
	require.NoError(t, err)
	unlock()
}

func TestRedisLockerDoesNotReleaseForeignToken(t *testing.T) {
	mr, client := newRedis(t)
	l := resolver.NewRedisLocker(client, resolver.LockConfig{TTL: time.Second})

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// the lock expired and another process took it
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("ingest:lock:k", "someone-else"))

	unlock()
	got, err := mr.Get("ingest:lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestResolverWithRedisLocker(t *testing.T) {
	_, client := newRedis(t)
	store := memory.New()
	r := resolver.New(store, salary.NewNormalizer(salary.DefaultPolicy()),
		resolver.WithLocker(resolver.NewRedisLocker(client, resolver.LockConfig{RetryDelay: time.Millisecond})))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), candidate(models.SourceKindBoard, "remotive"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, store.Jobs(), 1)
}
