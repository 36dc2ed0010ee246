package timer

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/rezmoss/polytimer/pkg/state"
)

func lines(out string) []string {
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func TestTailRunsOutAndNotifiesOnce(t *testing.T) {
	c, store, _ := newTestController(state.NewIdle())
	notified := 0
	c.notifier = NotifierFunc(func(context.Context) error {
		notified++
		return nil
	})

	if _, err := c.New(time.Minute); err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var out bytes.Buffer
	if err := c.Tail(context.Background(), NewDisplay(&out, false), DefaultIcons); err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	got := lines(out.String())
	if got[0] != "⏵ 01:00" {
		t.Errorf("Expected first line '⏵ 01:00', got %q", got[0])
	}
	if last := got[len(got)-2]; last != "⏵ 00:00" {
		t.Errorf("Expected last reading '⏵ 00:00', got %q", last)
	}
	if got[len(got)-1] != "" {
		t.Errorf("Expected trailing blank line, got %q", got[len(got)-1])
	}
	if notified != 1 {
		t.Errorf("Expected one notification, got %d", notified)
	}
	if mustLoad(t, store).Active() {
		t.Error("Expected timer removed after it ran out")
	}
}

func TestTailShowsPauseIconAndStopsOnExternalCancel(t *testing.T) {
	c, store, clock := newTestController(state.NewPaused(epoch.Add(5*time.Minute), epoch.Add(-10*time.Second)))
	clock.onAfter = func(waits int) {
		if waits == 3 {
			store.Clear()
		}
	}

	var out bytes.Buffer
	if err := c.Tail(context.Background(), NewDisplay(&out, false), Icons{Play: ">", Pause: "||"}); err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	want := []string{"|| 05:10", "|| 05:10", "|| 05:10", ""}
	got := lines(out.String())
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestTailNotificationFailureStillRemovesTimer(t *testing.T) {
	c, store, _ := newTestController(state.NewRunning(epoch))
	var logs bytes.Buffer
	c.logger = log.New(&logs, "", 0)
	c.notifier = NotifierFunc(func(context.Context) error { return errors.New("no audio device") })

	var out bytes.Buffer
	if err := c.Tail(context.Background(), NewDisplay(&out, false), DefaultIcons); err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if mustLoad(t, store).Active() {
		t.Error("Expected timer removed despite notification failure")
	}
	if !strings.Contains(logs.String(), "no audio device") {
		t.Errorf("Expected notification failure logged, got %q", logs.String())
	}
}

func TestTailPermissionErrorIsFatal(t *testing.T) {
	c, store, _ := newTestController(state.NewRunning(epoch))
	store.ClearErr = state.ErrPermission

	var out bytes.Buffer
	err := c.Tail(context.Background(), NewDisplay(&out, false), DefaultIcons)
	if !errors.Is(err, state.ErrPermission) {
		t.Errorf("Expected ErrPermission, got %v", err)
	}
}

// stalledClock never fires, leaving ctx as the only way out of a wait.
type stalledClock struct{ now time.Time }

func (s stalledClock) Now() time.Time                     { return s.now }
func (stalledClock) After(time.Duration) <-chan time.Time { return nil }

func TestTailStopsWhenContextDone(t *testing.T) {
	store := state.NewMemoryStore(state.NewRunning(epoch.Add(90 * time.Second)))
	c := New(store, WithClock(stalledClock{now: epoch}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if err := c.Tail(ctx, NewDisplay(&out, true), DefaultIcons); err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if want := "\r\x1b[K⏵ 01:30\r\x1b[K\n"; out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
	if !mustLoad(t, store).Active() {
		t.Error("Expected timer to survive a stopped tail")
	}
}

func TestPollIdle(t *testing.T) {
	c, _, _ := newTestController(state.NewIdle())
	r, err := c.Poll()
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if r.Active || r.Done() {
		t.Errorf("Expected inactive reading, got %+v", r)
	}
}

func TestExpire(t *testing.T) {
	c, store, _ := newTestController(state.NewRunning(epoch))
	called := false
	c.notifier = NotifierFunc(func(context.Context) error {
		called = true
		return nil
	})
	if err := c.Expire(context.Background()); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if !called || mustLoad(t, store).Active() {
		t.Errorf("Expected notification and removal, notified=%v", called)
	}
}
