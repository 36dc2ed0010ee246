// Package state holds the persisted shape of the single countdown timer and
// the stores that keep it between invocations.
package state

import (
	"errors"
	"time"
)

var (
	// ErrPermission is returned when the store lacks the rights to create,
	// write or remove its state. Callers must not continue silently.
	ErrPermission = errors.New("insufficient permissions")
	// ErrCorrupt is returned when a marker does not hold a decimal timestamp
	// between the epoch and Latest.
	ErrCorrupt = errors.New("corrupt timer state")
)

// Latest is the furthest expiry a timer can have. Arithmetic on expiries
// saturates here instead of wrapping.
var Latest = time.Unix(1<<62, 0)

type Phase int

const (
	Idle Phase = iota
	Running
	Paused
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// State is the whole timer. Expiry is set for Running and Paused, PausedAt
// only for Paused. Use the constructors so a pause can never exist without
// an expiry.
type State struct {
	Phase    Phase
	Expiry   time.Time
	PausedAt time.Time
}

func NewIdle() State { return State{} }

func NewRunning(expiry time.Time) State {
	return State{Phase: Running, Expiry: expiry.Truncate(time.Second)}
}

func NewPaused(expiry, pausedAt time.Time) State {
	return State{
		Phase:    Paused,
		Expiry:   expiry.Truncate(time.Second),
		PausedAt: pausedAt.Truncate(time.Second),
	}
}

func (s State) Active() bool { return s.Phase != Idle }

func (s State) IsPaused() bool { return s.Phase == Paused }

// Store persists a State. Save(NewIdle()) is equivalent to Clear.
type Store interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}
