// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
)

// StateDependencies defines the interface for debug and persistence
// operations.
type StateDependencies interface {
	Dump(ctx context.Context) DebugState
	Reset(ctx context.Context) error
	SaveState(ctx context.Context, path string) error
	LoadState(ctx context.Context, path string) error
}

// StateHandler handles debug, reset and persistence requests.
type StateHandler struct {
	deps StateDependencies
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps StateDependencies) *StateHandler {
	return &StateHandler{deps: deps}
}

// HandleDebug handles GET /debug requests with a full state dump.
func (h *StateHandler) HandleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Dump(r.Context()))
}

// HandleClear handles GET /clear requests, wiping choices and tallies.
func (h *StateHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "cleared"})
}

// HandleSave handles GET /save[?fname=..] requests.
func (h *StateHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	fname, ok := fnameParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := h.deps.SaveState(r.Context(), fname); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "saved"})
}

// HandleLoad handles GET /load[?fname=..] requests. A missing or corrupt
// file is reported as 404; the running state stays as it was.
func (h *StateHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	fname, ok := fnameParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := h.deps.LoadState(r.Context(), fname); err != nil {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "loaded"})
}

// fnameParam returns the optional fname parameter, rejecting anything
// that escapes the working directory. An empty fname selects the
// configured default path.
func fnameParam(r *http.Request) (string, bool) {
	fname := r.URL.Query().Get("fname")
	if fname == "" {
		return "", true
	}
	if strings.Contains(fname, "..") || filepath.IsAbs(fname) {
		return "", false
	}
	return fname, true
}
