// Package stats counts polling, resolution and cache activity for
// /metrics and /api/stats.
package stats

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/axiomhq/hyperloglog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transfer-status-backend/internal/poller"
	"transfer-status-backend/internal/resolver"
)

// Config holds metrics configuration.
type Config struct {
	Namespace       string        `mapstructure:"namespace"`
	BucketRetention time.Duration `mapstructure:"bucket_retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// DefaultConfig keeps a day of per-minute reference sketches.
func DefaultConfig() Config {
	return Config{
		Namespace:       "transferstatus",
		BucketRetention: 24 * time.Hour,
		CleanupInterval: 15 * time.Minute,
	}
}

// Standard windows reported for distinct references.
var standardTimePeriods = map[string]time.Duration{
	"1m": time.Minute,
	"1h": time.Hour,
	"1d": 24 * time.Hour,
}

// Collector implements poller.Observer and resolver.Observer.
type Collector struct {
	config   Config
	registry *prometheus.Registry
	now      func() time.Time

	polls        *prometheus.CounterVec
	pollDuration prometheus.Histogram
	resolves     *prometheus.CounterVec
	cacheErrors  *prometheus.CounterVec
	watchers     prometheus.Gauge

	mu         sync.Mutex
	startTime  time.Time
	pollCounts map[poller.Outcome]int64
	resolveBy  map[resolver.Source]int64
	cacheFails int64
	active     int64
	globalRefs *hyperloglog.Sketch
	refsMinute map[time.Time]*hyperloglog.Sketch
}

// NewCollector registers its metrics on a private registry.
func NewCollector(config Config) *Collector {
	c := &Collector{
		config:     config,
		registry:   prometheus.NewRegistry(),
		now:        time.Now,
		startTime:  time.Now(),
		pollCounts: make(map[poller.Outcome]int64),
		resolveBy:  make(map[resolver.Source]int64),
		globalRefs: hyperloglog.New16(),
		refsMinute: make(map[time.Time]*hyperloglog.Sketch),
	}

	c.polls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "polls_total",
		Help:      "Finished transfer polls by outcome.",
	}, []string{"outcome"})
	c.pollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "poll_duration_seconds",
		Help:      "Time spent fetching and normalizing a transfer.",
		Buckets:   prometheus.DefBuckets,
	})
	c.resolves = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "resolves_total",
		Help:      "Initial loads by the source that answered.",
	}, []string{"source"})
	c.cacheErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "last_transfer_errors_total",
		Help:      "Swallowed last_transfer storage failures.",
	}, []string{"op"})
	c.watchers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Name:      "active_watchers",
		Help:      "Mounted polling controllers.",
	})

	c.registry.MustRegister(c.polls, c.pollDuration, c.resolves, c.cacheErrors, c.watchers)
	return c
}

// Handler serves the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// PollCompleted records a finished poll and the reference it watched.
func (c *Collector) PollCompleted(ref string, outcome poller.Outcome, took time.Duration) {
	c.polls.WithLabelValues(string(outcome)).Inc()
	c.pollDuration.Observe(took.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollCounts[outcome]++
	c.insertRef(ref)
}

// Resolved records which source answered an initial load.
func (c *Collector) Resolved(source resolver.Source) {
	c.resolves.WithLabelValues(string(source)).Inc()

	c.mu.Lock()
	c.resolveBy[source]++
	c.mu.Unlock()
}

// CacheError records a swallowed last_transfer failure.
func (c *Collector) CacheError(op string, _ error) {
	c.cacheErrors.WithLabelValues(op).Inc()

	c.mu.Lock()
	c.cacheFails++
	c.mu.Unlock()
}

// WatcherMounted and WatcherUnmounted track live controllers.
func (c *Collector) WatcherMounted() {
	c.watchers.Inc()
	c.mu.Lock()
	c.active++
	c.mu.Unlock()
}

func (c *Collector) WatcherUnmounted() {
	c.watchers.Dec()
	c.mu.Lock()
	c.active--
	c.mu.Unlock()
}

// insertRef must be called with mu held.
func (c *Collector) insertRef(ref string) {
	if ref == "" {
		return
	}
	c.globalRefs.Insert([]byte(ref))

	minute := c.now().Truncate(time.Minute)
	sketch, ok := c.refsMinute[minute]
	if !ok {
		sketch = hyperloglog.New14()
		c.refsMinute[minute] = sketch
	}
	sketch.Insert([]byte(ref))
}

// Snapshot is the JSON body of /api/stats.
type Snapshot struct {
	Uptime       string            `json:"uptime"`
	Polls        map[string]int64  `json:"polls"`
	Resolves     map[string]int64  `json:"resolves"`
	CacheErrors  int64             `json:"cacheErrors"`
	Watchers     int64             `json:"watchers"`
	UniqueRefs   uint64            `json:"uniqueRefs"`
	UniqueByTime map[string]uint64 `json:"uniqueRefsByPeriod"`
}

// Snapshot returns current counters and distinct-reference estimates.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := Snapshot{
		Uptime:       now.Sub(c.startTime).Truncate(time.Second).String(),
		Polls:        make(map[string]int64, len(c.pollCounts)),
		Resolves:     make(map[string]int64, len(c.resolveBy)),
		CacheErrors:  c.cacheFails,
		Watchers:     c.active,
		UniqueRefs:   c.globalRefs.Estimate(),
		UniqueByTime: make(map[string]uint64, len(standardTimePeriods)),
	}
	for k, v := range c.pollCounts {
		s.Polls[string(k)] = v
	}
	for k, v := range c.resolveBy {
		s.Resolves[string(k)] = v
	}
	for period, d := range standardTimePeriods {
		s.UniqueByTime[period] = c.estimateSince(now.Add(-d))
	}
	return s
}

// estimateSince merges the minute sketches newer than since. mu must be held.
func (c *Collector) estimateSince(since time.Time) uint64 {
	merged := hyperloglog.New14()
	cutoff := since.Truncate(time.Minute)
	for minute, sketch := range c.refsMinute {
		if minute.Before(cutoff) {
			continue
		}
		if err := merged.Merge(sketch); err != nil {
			continue
		}
	}
	return merged.Estimate()
}

// Cleanup drops minute sketches older than the retention window.
func (c *Collector) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.config.BucketRetention)
	removed := 0
	for minute := range c.refsMinute {
		if minute.Before(cutoff) {
			delete(c.refsMinute, minute)
			removed++
		}
	}
	return removed
}

// RunCleanup calls Cleanup every CleanupInterval until ctx is done.
func (c *Collector) RunCleanup(ctx context.Context) {
	if c.config.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}
