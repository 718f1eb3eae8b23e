package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transfer-status-backend/internal/utils"
)

// unreachableRedis points at a port nothing listens on.
func unreachableRedis() *Redis {
	return NewRedisWithClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}), 200*time.Millisecond)
}

func TestRedisErrorsAreCacheErrors(t *testing.T) {
	r := unreachableRedis()
	defer r.Close()
	ctx := context.Background()

	_, ok, err := r.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, utils.ErrorTypeCache, utils.GetErrorType(err))

	err = r.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Equal(t, "REDIS_SET", utils.GetErrorCode(err))

	assert.Error(t, r.Delete(ctx, "k"))
	assert.Error(t, r.Ping(ctx))
}

func TestLastTransferSurvivesRedisOutage(t *testing.T) {
	r := unreachableRedis()
	defer r.Close()

	var ops []string
	lt := NewLastTransfer(r, time.Hour)
	lt.OnError = func(op string, err error) { ops = append(ops, op) }

	_, ok := lt.Load(context.Background(), "session")
	assert.False(t, ok)
	assert.Equal(t, []string{"load"}, ops)
}

func TestNewStoreSelectsRedis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "redis"
	store := NewStore(cfg)
	_, ok := store.(*Redis)
	assert.True(t, ok)
	_ = store.(*Redis).Close()
}

// liveRedis connects to REDIS_ADDR and skips the test when it is unset.
func liveRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	cfg := DefaultConfig()
	cfg.RedisAddr = addr
	r := NewRedis(cfg)
	t.Cleanup(func() { _ = r.Close() })
	require.NoError(t, r.Ping(context.Background()))
	return r
}

func TestRedisRoundTrip(t *testing.T) {
	r := liveRedis(t)
	ctx := context.Background()
	key := KeyPrefix + "test-" + t.Name()

	_, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, key, []byte(`{"amount":1}`), time.Minute))
	got, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"amount":1}`, string(got))

	require.NoError(t, r.Delete(ctx, key))
	_, ok, err = r.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisEntriesExpire(t *testing.T) {
	r := liveRedis(t)
	ctx := context.Background()
	key := KeyPrefix + "test-" + t.Name()

	require.NoError(t, r.Set(ctx, key, []byte("v"), 50*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, ok, err := r.Get(ctx, key)
		return err == nil && !ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLastTransferOverRedis(t *testing.T) {
	r := liveRedis(t)
	ctx := context.Background()
	lt := NewLastTransfer(r, time.Minute)

	<-lt.Save(ctx, "redis-session", []byte(`{"rail":"zelle"}`))
	got, ok := lt.Load(ctx, "redis-session")
	assert.True(t, ok)
	assert.Equal(t, `{"rail":"zelle"}`, string(got))
	lt.Clear(ctx, "redis-session")
	_, ok = lt.Load(ctx, "redis-session")
	assert.False(t, ok)
}
