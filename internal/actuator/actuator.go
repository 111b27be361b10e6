// Package actuator drives the physical compartment relay from the lock
// state API. It runs as its own process on the lock controller and only
// ever talks to GET /api/lock/state.
package actuator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Relay is a physical lock actuator.
type Relay interface {
	// SetLocked drives the relay to the locked or open position.
	SetLocked(locked bool) error
}

// FileRelay drives a relay through a sysfs-style GPIO value file.
type FileRelay struct {
	Path string
	// ActiveLow inverts the written level for relay boards that
	// energize on 0.
	ActiveLow bool
}

func (r *FileRelay) SetLocked(locked bool) error {
	// Locked is the de-energized position, so a power cut leaves the
	// compartment shut.
	level := "0"
	if locked == r.ActiveLow {
		level = "1"
	}
	if err := os.WriteFile(r.Path, []byte(level), 0o644); err != nil {
		return fmt.Errorf("writing relay value: %w", err)
	}
	return nil
}

// lockState mirrors the GET /api/lock/state payload.
type lockState struct {
	Locked          bool    `json:"locked"`
	UnlockExpiresAt *string `json:"unlock_expires_at"`
}

// StateReader reports whether the compartment should currently be
// locked.
type StateReader interface {
	ReadLocked(ctx context.Context) (bool, error)
}

// Client reads lock state from the Deco server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a lock state client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// ReadLocked queries GET /api/lock/state.
func (c *Client) ReadLocked(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/lock/state", nil)
	if err != nil {
		return true, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("polling lock state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return true, fmt.Errorf("polling lock state: status %d", resp.StatusCode)
	}

	var state lockState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return true, fmt.Errorf("decoding lock state: %w", err)
	}

	// An open state must carry an expiry; without one the payload is
	// malformed and the safe reading is locked.
	if !state.Locked && state.UnlockExpiresAt == nil {
		return true, fmt.Errorf("open state without expiry")
	}

	return state.Locked, nil
}
