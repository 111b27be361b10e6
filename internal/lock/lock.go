// Package lock holds the single source of truth for the physical lock
// state. Exactly one Machine exists per process; every component that
// wants the compartment opened goes through OpenWindow, and the
// hardware actuator learns the state exclusively through Query.
package lock

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidDuration is returned by OpenWindow for non-positive durations.
var ErrInvalidDuration = errors.New("unlock duration must be positive")

// State is the effective lock state at the time of a Query.
// ExpiresAt is nil whenever Locked is true.
type State struct {
	Locked    bool
	ExpiresAt *time.Time
}

// Machine is the lock state machine. It starts Locked and alternates
// between Locked and a bounded unlock window for the lifetime of the
// process; there is no terminal state. All operations are serialized by
// an internal mutex, and Query is cheap enough for a high-frequency
// polling actuator.
type Machine struct {
	mu        sync.Mutex
	locked    bool
	expiresAt time.Time
	gen       uint64
	timer     *time.Timer

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Machine in the Locked state.
func New() *Machine {
	return &Machine{
		locked: true,
		now:    time.Now,
	}
}

// OpenWindow unlocks until now + d, replacing any window already in
// progress: a new open overwrites rather than extends, so the last
// writer wins. Returns the window's expiry time.
func (m *Machine) OpenWindow(d time.Duration) (time.Time, error) {
	if d <= 0 {
		return time.Time{}, ErrInvalidDuration
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	gen := m.gen
	m.locked = false
	m.expiresAt = m.now().Add(d)

	// Sweep the window when it expires. Expiry itself is authoritative
	// (Query computes it from the timestamp); the timer only keeps the
	// stored state from going stale forever.
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(d, func() { m.sweep(gen) })

	return m.expiresAt, nil
}

// Lock transitions to Locked from any state.
func (m *Machine) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.locked = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Query returns the effective state. A window whose expiry has passed
// reads as locked even before the sweeper runs; querying never mutates
// stored state.
func (m *Machine) Query() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locked || !m.now().Before(m.expiresAt) {
		return State{Locked: true}
	}

	expiresAt := m.expiresAt
	return State{Locked: false, ExpiresAt: &expiresAt}
}

// sweep relocks after a window expires, unless a newer OpenWindow or
// Lock superseded the window this sweep was armed for.
func (m *Machine) sweep(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}
	m.locked = true
	m.timer = nil
}
