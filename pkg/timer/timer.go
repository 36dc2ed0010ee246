// Package timer implements the countdown operations on top of a state.Store:
// creating, cancelling, extending, pausing and watching the single timer.
package timer

import (
	"context"
	"errors"
	"log"
	"math"
	"os"
	"time"

	"github.com/rezmoss/polytimer/pkg/state"
)

// DefaultInterval is how often Tail re-reads the state.
const DefaultInterval = 250 * time.Millisecond

var latest = state.Latest

// Notifier plays the expiry cue and returns once it has finished.
type Notifier interface {
	Notify(ctx context.Context) error
}

type NotifierFunc func(ctx context.Context) error

func (f NotifierFunc) Notify(ctx context.Context) error { return f(ctx) }

var silent = NotifierFunc(func(context.Context) error { return nil })

type Controller struct {
	store    state.Store
	clock    Clock
	notifier Notifier
	logger   *log.Logger
	interval time.Duration
}

type Option func(*Controller)

func WithClock(c Clock) Option { return func(ctl *Controller) { ctl.clock = c } }

func WithNotifier(n Notifier) Option { return func(ctl *Controller) { ctl.notifier = n } }

func WithLogger(l *log.Logger) Option { return func(ctl *Controller) { ctl.logger = l } }

// WithInterval sets the Tail polling interval; non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.interval = d
		}
	}
}

func New(store state.Store, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		clock:    SystemClock,
		notifier: silent,
		logger:   log.New(os.Stderr, "polytimer: ", 0),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// load reads the state, discarding markers that no longer parse.
func (c *Controller) load() (state.State, error) {
	st, err := c.store.Load()
	if errors.Is(err, state.ErrCorrupt) {
		c.logger.Printf("discarding timer: %v", err)
		return state.NewIdle(), c.store.Clear()
	}
	return st, err
}

// Active reports whether a timer exists, paused or not.
func (c *Controller) Active() (bool, error) {
	st, err := c.load()
	return st.Active(), err
}

// Create starts a timer of length d, replacing whatever was there.
func (c *Controller) Create(d time.Duration) error {
	return c.store.Save(state.NewRunning(addSaturating(c.clock.Now(), d)))
}

// New creates a timer of length d unless one is already active. It reports
// whether a timer was created.
func (c *Controller) New(d time.Duration) (bool, error) {
	active, err := c.Active()
	if err != nil || active {
		return false, err
	}
	return true, c.Create(d)
}

// Cancel removes any timer. Cancelling nothing is not an error.
func (c *Controller) Cancel() error {
	return c.store.Clear()
}

// Increase pushes the expiry of the active timer back by d. A timer that
// would still be expired afterwards is restarted with length d instead, and
// with no timer at all this is Create.
func (c *Controller) Increase(d time.Duration) error {
	st, err := c.load()
	if err != nil {
		return err
	}
	if !st.Active() {
		return c.Create(d)
	}
	return c.store.Save(extend(st, d, c.clock.Now()))
}

// Toggle pauses a running timer or resumes a paused one, moving the expiry
// forward by the time spent paused. Without a timer it does nothing.
func (c *Controller) Toggle() error {
	st, err := c.load()
	if err != nil {
		return err
	}
	now := c.clock.Now()
	switch st.Phase {
	case state.Running:
		return c.store.Save(state.NewPaused(st.Expiry, now))
	case state.Paused:
		resumed := state.NewRunning(st.Expiry)
		if elapsed := now.Sub(st.PausedAt); elapsed > 0 {
			resumed = extend(resumed, elapsed, now)
		}
		return c.store.Save(resumed)
	}
	return nil
}

func extend(st state.State, d time.Duration, now time.Time) state.State {
	expiry := addSaturating(st.Expiry, d).Truncate(time.Second)
	if !expiry.After(now.Truncate(time.Second)) {
		// An expired timer is no base to extend from.
		return state.NewRunning(addSaturating(now, d))
	}
	if st.IsPaused() {
		return state.NewPaused(expiry, st.PausedAt)
	}
	return state.NewRunning(expiry)
}

func addSaturating(t time.Time, d time.Duration) time.Time {
	if d < 0 {
		d = 0
	}
	if !t.Before(latest) || d > latest.Sub(t) {
		return latest
	}
	return t.Add(d)
}

// Duration converts n units to a time.Duration, saturating instead of
// overflowing.
func Duration(n uint64, unit time.Duration) time.Duration {
	if unit <= 0 {
		return 0
	}
	if n > uint64(math.MaxInt64/unit) {
		return math.MaxInt64
	}
	return time.Duration(n) * unit
}
