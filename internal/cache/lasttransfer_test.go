package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("storage unavailable")
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("quota exceeded")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("storage unavailable")
}

func TestKeyHashesSession(t *testing.T) {
	k := Key("session-token-123")
	assert.True(t, strings.HasPrefix(k, KeyPrefix))
	assert.NotContains(t, k, "session-token-123")
	assert.Len(t, k, len(KeyPrefix)+32)
	assert.Equal(t, k, Key("session-token-123"))
	assert.NotEqual(t, k, Key("session-token-124"))
}

func TestLastTransferRoundTrip(t *testing.T) {
	ctx := context.Background()
	lt := NewLastTransfer(NewMemory(), time.Hour)

	_, ok := lt.Load(ctx, "sid")
	assert.False(t, ok)

	<-lt.Save(ctx, "sid", []byte(`{"amount":250,"ccy":"EUR"}`))

	raw, ok := lt.Load(ctx, "sid")
	require.True(t, ok)
	assert.JSONEq(t, `{"amount":250,"ccy":"EUR"}`, string(raw))

	_, ok = lt.Load(ctx, "other")
	assert.False(t, ok)

	lt.Clear(ctx, "sid")
	_, ok = lt.Load(ctx, "sid")
	assert.False(t, ok)
}

func TestLastTransferEmptySession(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	lt := NewLastTransfer(m, time.Hour)

	<-lt.Save(ctx, "", []byte(`{}`))
	assert.Equal(t, 0, m.Len())
	_, ok := lt.Load(ctx, "")
	assert.False(t, ok)
}

func TestLastTransferSwallowsFailures(t *testing.T) {
	ctx := context.Background()
	lt := NewLastTransfer(failingStore{}, time.Hour)

	var mu sync.Mutex
	var ops []string
	lt.OnError = func(op string, err error) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, op)
	}

	_, ok := lt.Load(ctx, "sid")
	assert.False(t, ok)
	<-lt.Save(ctx, "sid", []byte(`{}`))
	lt.Clear(ctx, "sid")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"load", "save", "clear"}, ops)
}

func TestLastTransferSaveSurvivesCancel(t *testing.T) {
	m := NewMemory()
	lt := NewLastTransfer(m, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := lt.Save(ctx, "sid", []byte(`{"amount":1}`))
	cancel()
	<-done

	_, ok := lt.Load(context.Background(), "sid")
	assert.True(t, ok)
}
