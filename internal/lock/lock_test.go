package lock

import (
	"sync"
	"testing"
	"time"
)

func TestNew_StartsLocked(t *testing.T) {
	m := New()

	state := m.Query()
	if !state.Locked {
		t.Error("new machine should start locked")
	}
	if state.ExpiresAt != nil {
		t.Error("locked state should carry no expiry")
	}
}

func TestOpenWindow_Unlocks(t *testing.T) {
	m := New()

	expiresAt, err := m.OpenWindow(time.Minute)
	if err != nil {
		t.Fatalf("OpenWindow() error = %v", err)
	}

	state := m.Query()
	if state.Locked {
		t.Error("machine should be unlocked inside the window")
	}
	if state.ExpiresAt == nil || !state.ExpiresAt.Equal(expiresAt) {
		t.Errorf("Query expiry = %v, want %v", state.ExpiresAt, expiresAt)
	}
}

func TestOpenWindow_RejectsNonPositiveDuration(t *testing.T) {
	m := New()

	for _, d := range []time.Duration{0, -time.Second} {
		if _, err := m.OpenWindow(d); err != ErrInvalidDuration {
			t.Errorf("OpenWindow(%v) error = %v, want ErrInvalidDuration", d, err)
		}
	}

	if state := m.Query(); !state.Locked {
		t.Error("rejected OpenWindow should not change state")
	}
}

func TestOpenWindow_LastWriterWins(t *testing.T) {
	m := New()

	first, err := m.OpenWindow(time.Hour)
	if err != nil {
		t.Fatalf("OpenWindow() error = %v", err)
	}

	second, err := m.OpenWindow(time.Second)
	if err != nil {
		t.Fatalf("OpenWindow() error = %v", err)
	}

	if !second.Before(first) {
		t.Error("a new window should replace the old one, not extend it")
	}

	state := m.Query()
	if state.ExpiresAt == nil || !state.ExpiresAt.Equal(second) {
		t.Errorf("Query expiry = %v, want the replacement window %v", state.ExpiresAt, second)
	}
}

func TestLock_ClosesWindow(t *testing.T) {
	m := New()

	if _, err := m.OpenWindow(time.Hour); err != nil {
		t.Fatalf("OpenWindow() error = %v", err)
	}

	m.Lock()

	if state := m.Query(); !state.Locked {
		t.Error("Lock() should close an open window immediately")
	}
}

func TestQuery_LazyExpiry(t *testing.T) {
	m := New()
	base := time.Now()
	current := base
	m.now = func() time.Time { return current }

	if _, err := m.OpenWindow(2 * time.Second); err != nil {
		t.Fatalf("OpenWindow() error = %v", err)
	}

	if state := m.Query(); state.Locked {
		t.Error("should be unlocked immediately after OpenWindow")
	}

	// Advance past expiry without waiting for the sweeper.
	current = base.Add(2*time.Second + time.Millisecond)

	if state := m.Query(); !state.Locked {
		t.Error("expired window should read as locked without an explicit Lock call")
	}
	if state := m.Query(); state.ExpiresAt != nil {
		t.Error("expired window should carry no expiry")
	}
}

func TestSweeper_RelocksAfterExpiry(t *testing.T) {
	m := New()

	if _, err := m.OpenWindow(20 * time.Millisecond); err != nil {
		t.Fatalf("OpenWindow() error = %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	m.mu.Lock()
	storedLocked := m.locked
	m.mu.Unlock()

	if !storedLocked {
		t.Error("sweeper should have relocked the stored state after expiry")
	}
}

func TestSweeper_DoesNotRelockNewerWindow(t *testing.T) {
	m := New()

	if _, err := m.OpenWindow(20 * time.Millisecond); err != nil {
		t.Fatalf("OpenWindow() error = %v", err)
	}
	// Replace before the first window's sweeper fires.
	if _, err := m.OpenWindow(time.Hour); err != nil {
		t.Fatalf("OpenWindow() error = %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if state := m.Query(); state.Locked {
		t.Error("superseded window's sweeper must not relock the newer window")
	}
}

func TestMachine_ConcurrentAccess(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Query()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.OpenWindow(time.Millisecond * 10)
				m.Lock()
			}
		}()
	}
	wg.Wait()

	m.Lock()
	if state := m.Query(); !state.Locked {
		t.Error("machine should be locked after the final Lock call")
	}
}
