package stats

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transfer-status-backend/internal/poller"
	"transfer-status-backend/internal/resolver"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector(DefaultConfig())

	c.PollCompleted("TX-1", poller.OutcomeChanged, 10*time.Millisecond)
	c.PollCompleted("TX-1", poller.OutcomeUnchanged, 10*time.Millisecond)
	c.PollCompleted("TX-2", poller.OutcomeError, 10*time.Millisecond)
	c.Resolved(resolver.SourceLive)
	c.Resolved(resolver.SourceCache)
	c.Resolved(resolver.SourceCache)
	c.CacheError("save", errors.New("quota"))
	c.WatcherMounted()
	c.WatcherMounted()
	c.WatcherUnmounted()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.polls.WithLabelValues("changed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.resolves.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.watchers))

	s := c.Snapshot()
	assert.Equal(t, int64(1), s.Polls["error"])
	assert.Equal(t, int64(2), s.Resolves["cache"])
	assert.Equal(t, int64(1), s.CacheErrors)
	assert.Equal(t, int64(1), s.Watchers)
	assert.Equal(t, uint64(2), s.UniqueRefs)
	assert.Equal(t, uint64(2), s.UniqueByTime["1h"])
}

func TestCollectorDistinctRefsByPeriod(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCollector(DefaultConfig())
	c.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		c.PollCompleted(fmt.Sprintf("OLD-%d", i), poller.OutcomeUnchanged, 0)
	}
	now = now.Add(2 * time.Hour)
	for i := 0; i < 3; i++ {
		c.PollCompleted(fmt.Sprintf("NEW-%d", i), poller.OutcomeUnchanged, 0)
	}

	s := c.Snapshot()
	assert.Equal(t, uint64(3), s.UniqueByTime["1m"])
	assert.Equal(t, uint64(3), s.UniqueByTime["1h"])
	assert.Equal(t, uint64(8), s.UniqueByTime["1d"])

	now = now.Add(25 * time.Hour)
	assert.Equal(t, 2, c.Cleanup())
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector(DefaultConfig())
	c.Resolved(resolver.SourcePlaceholder)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `transferstatus_resolves_total{source="placeholder"} 1`)
}
