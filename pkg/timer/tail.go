package timer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rezmoss/polytimer/pkg/state"
)

type Icons struct {
	Play  string
	Pause string
}

var DefaultIcons = Icons{Play: "⏵", Pause: "⏸"}

// Reading is a snapshot of the timer as the status bar shows it.
type Reading struct {
	Active    bool
	Paused    bool
	Remaining time.Duration
	Expiry    time.Time
}

// Done reports whether less than a displayable second remains.
func (r Reading) Done() bool {
	return r.Active && r.Remaining < time.Second
}

// Label renders "ICON MM:SS". Minutes are not wrapped at the hour.
func (r Reading) Label(icons Icons) string {
	icon := icons.Play
	if r.Paused {
		icon = icons.Pause
	}
	return Format(icon, r.Remaining)
}

func Format(icon string, remaining time.Duration) string {
	secs := int64(remaining / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%s %02d:%02d", icon, secs/60, secs%60)
}

// Poll reads the timer once. A paused timer's remaining time is frozen at
// the moment it was paused.
func (c *Controller) Poll() (Reading, error) {
	st, err := c.load()
	if err != nil || !st.Active() {
		return Reading{}, err
	}
	r := Reading{Active: true, Paused: st.IsPaused(), Expiry: st.Expiry}
	if r.Paused {
		r.Remaining = st.Expiry.Sub(st.PausedAt)
	} else {
		r.Remaining = st.Expiry.Sub(c.clock.Now())
	}
	if r.Remaining < 0 {
		r.Remaining = 0
	}
	return r, nil
}

// Expire plays the notification and removes the timer. A failed
// notification is logged; the timer is removed regardless.
func (c *Controller) Expire(ctx context.Context) error {
	c.notify(ctx)
	return c.Cancel()
}

func (c *Controller) notify(ctx context.Context) {
	if err := c.notifier.Notify(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Printf("notification failed: %v", err)
	}
}

// Display writes successive status lines. When Overwrite is set each line
// replaces the previous one in place, for terminals; otherwise every update
// is its own line, which is what polybar's tail mode reads.
type Display struct {
	w         io.Writer
	Overwrite bool
}

func NewDisplay(w io.Writer, overwrite bool) *Display {
	return &Display{w: w, Overwrite: overwrite}
}

func (d *Display) Show(line string) error {
	var err error
	if d.Overwrite {
		_, err = fmt.Fprintf(d.w, "\r\x1b[K%s", line)
	} else {
		_, err = fmt.Fprintln(d.w, line)
	}
	return err
}

// Clear blanks the display and ends the line.
func (d *Display) Clear() error {
	var err error
	if d.Overwrite {
		_, err = fmt.Fprint(d.w, "\r\x1b[K\n")
	} else {
		_, err = fmt.Fprintln(d.w)
	}
	return err
}

// Tail shows the remaining time every interval until the timer is gone,
// either because it ran out here or because another invocation cancelled
// it, or until ctx is done. An expired timer is notified once and removed.
func (c *Controller) Tail(ctx context.Context, d *Display, icons Icons) error {
	defer d.Clear()

	var notified time.Time
	for {
		r, err := c.Poll()
		if err != nil {
			return err
		}
		if !r.Active {
			return nil
		}
		if err := d.Show(r.Label(icons)); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-c.clock.After(c.interval):
		}

		if !r.Done() {
			continue
		}
		if !r.Expiry.Equal(notified) {
			c.notify(ctx)
			notified = r.Expiry
		}
		if err := c.Cancel(); err != nil {
			if errors.Is(err, state.ErrPermission) {
				return err
			}
			c.logger.Printf("removing expired timer: %v", err)
		}
	}
}
