// Package filter owns the search and category filter state and turns
// changes to it into queries.
package filter

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hpungsan/lemon/internal/menu"
)

// DefaultDebounce is the quiet window applied to search text input.
const DefaultDebounce = 500 * time.Millisecond

// Querier answers a filter state. The query engine is the only
// implementation outside tests.
type Querier interface {
	Query(ctx context.Context, state State) ([]menu.Entry, error)
}

// Update is published to subscribers each time a query result becomes live.
type Update struct {
	// Seq is the issue number of the query that produced this update
	Seq uint64

	// State is the filter state the query ran with
	State State

	// Entries is the live result set, shared with other subscribers and not
	// to be modified. On error it is the previous result set.
	Entries []menu.Entry

	// Err is non-nil when the query failed
	Err error
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the search text quiet window. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithLogger sets the logger. If unset, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithContext sets the context passed to every query.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

type subscriber struct {
	id int
	fn func(Update)
}

// Controller debounces search text, applies category toggles immediately,
// and issues exactly one query per effective state change.
//
// Queries run on their own goroutines. Each is numbered at issue time and
// only the most recently issued query may publish, so a slow superseded
// query can never overwrite a newer result.
type Controller struct {
	querier  Querier
	sched    Scheduler
	debounce time.Duration
	logger   *slog.Logger
	ctx      context.Context

	mu          sync.Mutex
	state       State
	entries     []menu.Entry
	lastErr     error
	pending     Timer
	pendingText string
	token       uint64 // bumped on every keystroke
	issued      uint64
	subs        []subscriber
	nextSubID   int
	closed      bool

	pubMu     sync.Mutex
	published uint64

	wg sync.WaitGroup
}

// NewController creates a controller showing initial, typically the
// bootstrap result. Construction issues no query.
func NewController(q Querier, initial []menu.Entry, opts ...Option) *Controller {
	c := &Controller{
		querier:  q,
		sched:    RealScheduler,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		ctx:      context.Background(),
		entries:  slices.Clone(initial),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.entries == nil {
		c.entries = []menu.Entry{}
	}
	c.logger = c.logger.With(slog.String("component", "filter.Controller"))
	return c
}

// SetSearchText records a raw text snapshot. Each call cancels the pending
// one; the text becomes the search term once the debounce window passes
// with no further input.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if c.pending != nil {
		c.pending.Stop()
	}
	c.token++
	token := c.token
	c.pendingText = text
	c.pending = c.sched.AfterFunc(c.debounce, func() { c.settle(token) })
}

// Flush settles pending search text now instead of waiting for the window.
// It reports whether text was pending.
func (c *Controller) Flush() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.pending == nil {
		return false
	}
	c.pending.Stop()
	c.settleLocked()
	return true
}

// ToggleCategory flips label in the active set and queries immediately.
func (c *Controller) ToggleCategory(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.applyLocked(c.state.Toggled(label))
}

// SetCategories replaces the active set and queries if it changed.
func (c *Controller) SetCategories(labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.applyLocked(c.state.WithCategories(labels))
}

// State returns the effective filter state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Entries returns a copy of the live result set.
func (c *Controller) Entries() []menu.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.entries)
}

// Err returns the error of the last live query, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Issued returns how many queries the controller has issued.
func (c *Controller) Issued() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issued
}

// Subscribe registers fn for every published update and returns a function
// that removes it. fn must not call Wait.
func (c *Controller) Subscribe(fn func(Update)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.subs = slices.DeleteFunc(c.subs, func(s subscriber) bool { return s.id == id })
	}
}

// Wait blocks until every issued query has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels pending search text and stops publishing. Queries already
// in flight finish but their results are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// settle runs when the debounce timer for token fires.
func (c *Controller) settle(token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || token != c.token || c.pending == nil {
		return
	}
	c.settleLocked()
}

func (c *Controller) settleLocked() {
	text := c.pendingText
	c.pending = nil
	c.pendingText = ""
	c.applyLocked(c.state.WithTerm(text))
}

// applyLocked makes next the current state and issues a query if it
// differs from the current one.
func (c *Controller) applyLocked(next State) {
	if next.Equal(c.state) {
		return
	}
	c.state = next

	c.issued++
	seq := c.issued
	c.logger.Debug("query issued",
		slog.Uint64("seq", seq),
		slog.String("term", next.SearchTerm),
		slog.Any("categories", next.activeCategories),
	)

	c.wg.Add(1)
	go c.run(seq, next)
}

func (c *Controller) run(seq uint64, state State) {
	defer c.wg.Done()

	entries, err := c.querier.Query(c.ctx, state)

	c.mu.Lock()
	if c.closed || seq != c.issued {
		c.mu.Unlock()
		c.logger.Debug("query result dropped", slog.Uint64("seq", seq))
		return
	}
	if err != nil {
		c.lastErr = err
		c.logger.Warn("query failed; keeping previous results", slog.Uint64("seq", seq), slog.Any("error", err))
	} else {
		c.entries = entries
		if c.entries == nil {
			c.entries = []menu.Entry{}
		}
		c.lastErr = nil
	}
	update := Update{Seq: seq, State: state, Entries: c.entries, Err: err}
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	c.publish(update, subs)
}

// publish delivers update unless a newer one has already gone out.
func (c *Controller) publish(update Update, subs []subscriber) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if update.Seq <= c.published {
		return
	}
	c.published = update.Seq
	for _, s := range subs {
		s.fn(update)
	}
}
