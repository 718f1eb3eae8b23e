// Package poller keeps a transfer summary fresh while a page is watching it.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"transfer-status-backend/internal/api"
	"transfer-status-backend/internal/models"
	"transfer-status-backend/internal/normalize"
	"transfer-status-backend/internal/utils"
)

var (
	// ErrNotQueryable is returned by Mount for empty or placeholder references.
	ErrNotQueryable = errors.New("reference cannot be polled")
	// ErrMounted is returned by Mount when the controller is already running.
	ErrMounted = errors.New("controller already mounted")
	// ErrUnmounted is returned once the controller has been torn down.
	ErrUnmounted = errors.New("controller unmounted")
)

// UnreachableNotice is published after too many consecutive failed polls.
const UnreachableNotice = "We can't reach the server right now. The status shown may be out of date."

// Config holds polling configuration.
type Config struct {
	Interval         time.Duration `mapstructure:"interval"`
	FailureThreshold int           `mapstructure:"failure_threshold"` // 0 disables the notice
	UpdateBuffer     int           `mapstructure:"update_buffer"`
}

// DefaultConfig polls every six seconds.
func DefaultConfig() Config {
	return Config{
		Interval:         6 * time.Second,
		FailureThreshold: 5,
		UpdateBuffer:     8,
	}
}

// State is the controller lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

// Outcome classifies a finished poll.
type Outcome string

const (
	OutcomeChanged   Outcome = "changed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeError     Outcome = "error"
	OutcomeStale     Outcome = "stale"
)

// Observer is told about every finished poll.
type Observer interface {
	PollCompleted(ref string, outcome Outcome, took time.Duration)
}

// EventType distinguishes controller events.
type EventType string

const (
	EventSummary EventType = "summary"
	EventNotice  EventType = "notice"
)

// Event is published whenever the displayed summary or the reachability notice changes.
type Event struct {
	Type        EventType
	Summary     *models.TransferSummary
	Notice      string
	Unreachable bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(c *Controller) { c.normalizer = n }
}

// Controller polls one reference. It is single use: Mount once, Unmount once.
type Controller struct {
	config     Config
	fetcher    api.Fetcher
	normalizer *normalize.Normalizer
	observer   Observer
	logger     *utils.Logger
	metrics    utils.BackpressureMetrics

	mu          sync.Mutex
	state       State
	ref         models.ReferenceID
	current     *models.TransferSummary
	failures    int
	unreachable bool
	mounted     bool
	done        bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	events chan Event
}

// New creates an idle controller.
func New(fetcher api.Fetcher, config Config, opts ...Option) *Controller {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.UpdateBuffer <= 0 {
		config.UpdateBuffer = 1
	}
	c := &Controller{
		config:     config,
		fetcher:    fetcher,
		normalizer: normalize.New(),
		logger:     utils.PollerLogger,
		events:     make(chan Event, config.UpdateBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount fetches ref once, then polls it every interval until Unmount or until
// ctx is done. The initial fetch error is returned; polling starts regardless
// so the page recovers once the backend answers.
func (c *Controller) Mount(ctx context.Context, ref models.ReferenceID) (*models.TransferSummary, error) {
	if !ref.Queryable() {
		return nil, ErrNotQueryable
	}

	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return nil, ErrUnmounted
	}
	if c.mounted {
		c.mu.Unlock()
		return nil, ErrMounted
	}
	c.mounted = true
	c.ref = ref
	c.state = StateLoading
	c.ctx, c.cancel = context.WithCancel(ctx)
	pollCtx := c.ctx
	c.wg.Add(1)
	c.mu.Unlock()

	utils.LogInfo("POLLER", "Mounted %s (every %v)", ref, c.config.Interval)

	summary, _, err := c.poll(pollCtx, false)
	go c.loop(pollCtx)

	if err != nil {
		return nil, err
	}
	return summary, nil
}

// Unmount stops the timer, aborts in-flight requests and waits for them.
// No fetch is issued and no event is published afterwards.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.done = true
	c.state = StateIdle
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	close(c.events)

	utils.LogInfo("POLLER", "Unmounted %s", c.ref)
}

// Refresh polls immediately and returns the current summary.
func (c *Controller) Refresh(ctx context.Context) (*models.TransferSummary, bool, error) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return nil, false, ErrUnmounted
	}
	if !c.mounted {
		c.mu.Unlock()
		return nil, false, ErrNotQueryable
	}
	pollCtx, cancel := context.WithCancel(c.ctx)
	c.mu.Unlock()
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return c.poll(pollCtx, true)
}

// Current returns the displayed summary, or nil before the first success.
func (c *Controller) Current() *models.TransferSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reference returns the polled reference.
func (c *Controller) Reference() models.ReferenceID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ref
}

// Unreachable reports whether the failure notice is showing.
func (c *Controller) Unreachable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unreachable
}

// Updates delivers events until Unmount closes it. When the reader falls
// behind, the oldest queued events are dropped.
func (c *Controller) Updates() <-chan Event {
	return c.events
}

// DroppedUpdates returns how many events were evicted from a full channel.
func (c *Controller) DroppedUpdates() int64 {
	_, dropped := c.metrics.Stats()
	return dropped
}

// loop launches a poll per tick without waiting for earlier ones to finish.
func (c *Controller) loop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				c.poll(ctx, true)
			}()
		}
	}
}

// poll fetches, normalizes and swaps in the result if it differs from the
// displayed summary. Tick errors only feed the failure counter.
func (c *Controller) poll(ctx context.Context, tick bool) (*models.TransferSummary, bool, error) {
	start := time.Now()

	c.mu.Lock()
	ref := c.ref
	defaults := normalize.Defaults{ReferenceID: ref.Value}
	if c.current != nil {
		defaults.CreatedAt = c.current.CreatedAt
	}
	c.mu.Unlock()

	raw, err := c.fetcher.FetchTransfer(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			c.observe(ref, OutcomeStale, start)
			return nil, false, ctx.Err()
		}
		if tick {
			c.recordFailure(ref, err)
		}
		c.observe(ref, OutcomeError, start)
		return nil, false, err
	}

	next := c.normalizer.NormalizeWith(raw, defaults)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Unmount may have raced the response.
	if c.done || ctx.Err() != nil {
		c.observe(ref, OutcomeStale, start)
		return c.current, false, ctx.Err()
	}

	c.failures = 0
	if c.unreachable {
		c.unreachable = false
		c.publish(Event{Type: EventNotice})
	}
	c.state = StateLoaded

	if c.current != nil && c.current.Equal(&next) {
		c.observe(ref, OutcomeUnchanged, start)
		return c.current, false, nil
	}

	c.current = &next
	c.publish(Event{Type: EventSummary, Summary: c.current})
	c.observe(ref, OutcomeChanged, start)
	return c.current, true, nil
}

func (c *Controller) recordFailure(ref models.ReferenceID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.failures++
	c.logger.Debug("poll %s failed (%d in a row): %v", ref, c.failures, err)

	if c.config.FailureThreshold > 0 && c.failures >= c.config.FailureThreshold && !c.unreachable {
		c.unreachable = true
		c.logger.Warn("%s unreachable after %d consecutive failures", ref, c.failures)
		c.publish(Event{Type: EventNotice, Notice: UnreachableNotice, Unreachable: true})
	}
}

// publish must be called with mu held.
func (c *Controller) publish(ev Event) {
	utils.ReplaceLatest(c.events, ev, &c.metrics)
}

func (c *Controller) observe(ref models.ReferenceID, outcome Outcome, start time.Time) {
	if c.observer != nil {
		c.observer.PollCompleted(ref.Value, outcome, time.Since(start))
	}
}
