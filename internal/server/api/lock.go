package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tristanduncombe/DECO3500/internal/lock"
)

// LockHandler handles HTTP requests for the lock state.
type LockHandler struct {
	machine *lock.Machine
}

// NewLockHandler creates a new LockHandler over the given machine.
func NewLockHandler(m *lock.Machine) *LockHandler {
	return &LockHandler{machine: m}
}

type lockStateResponse struct {
	Locked          bool    `json:"locked"`
	UnlockExpiresAt *string `json:"unlock_expires_at"`
}

type setLockStateRequest struct {
	Locked bool `json:"locked"`
	// UnlockDuration is seconds to stay open when locked is false.
	// Zero means the default override window.
	UnlockDuration float64 `json:"unlock_duration"`
}

// defaultOverrideWindow is how long an admin unlock without an explicit
// duration keeps the compartment open.
const defaultOverrideWindow = 30 * time.Second

func stateResponse(state lock.State) lockStateResponse {
	response := lockStateResponse{Locked: state.Locked}
	if state.ExpiresAt != nil {
		formatted := state.ExpiresAt.Format(time.RFC3339)
		response.UnlockExpiresAt = &formatted
	}
	return response
}

// Get handles GET /api/lock/state. This is the whole contract the
// actuator poll loop depends on.
func (h *LockHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, stateResponse(h.machine.Query()))
}

// Set handles POST /api/lock/state, the admin override for jams and
// staff access.
func (h *LockHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setLockStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Locked {
		h.machine.Lock()
		WriteJSON(w, http.StatusOK, stateResponse(h.machine.Query()))
		return
	}

	duration := defaultOverrideWindow
	if req.UnlockDuration != 0 {
		duration = time.Duration(req.UnlockDuration * float64(time.Second))
	}

	if _, err := h.machine.OpenWindow(duration); err != nil {
		writeError(w, http.StatusBadRequest, "unlock_duration must be positive")
		return
	}

	WriteJSON(w, http.StatusOK, stateResponse(h.machine.Query()))
}
