// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	service "github.com/jfeo/artswipe/internal/app"
)

// ChooseDependencies defines the interface for recording choices.
type ChooseDependencies interface {
	RecordChoice(ctx context.Context, user, itemID string, decision bool) error
}

// ChooseHandler handles choice submissions.
type ChooseHandler struct {
	deps ChooseDependencies
}

// NewChooseHandler creates a new choose handler.
func NewChooseHandler(deps ChooseDependencies) *ChooseHandler {
	return &ChooseHandler{deps: deps}
}

// HandleChoose handles GET /choose?user=U&asset_id=I&choice=true|false
// requests. Submitting again for the same (user, item) overwrites the
// earlier decision.
func (h *ChooseHandler) HandleChoose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	user, err := userParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	itemID := r.URL.Query().Get("asset_id")
	if itemID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing asset_id"))
		return
	}
	decision, err := strconv.ParseBool(r.URL.Query().Get("choice"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("choice must be true or false"))
		return
	}

	if err := h.deps.RecordChoice(r.Context(), user, itemID, decision); err != nil {
		if errors.Is(err, service.ErrUnknownItem) {
			writeError(w, http.StatusBadRequest, "invalid_asset", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "ok"})
}
