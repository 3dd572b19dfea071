// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jfeo/artswipe/internal/domain/matchset"
)

// MatchDependencies defines the interface for match polling.
type MatchDependencies interface {
	PollMatches(ctx context.Context, user string, threshold int) matchset.Result
}

// MatchHandler handles match poll requests.
type MatchHandler struct {
	deps MatchDependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// HandleGetMatches handles GET /match?user=U[&threshold=T] requests.
// Each poll reports the full match set plus what appeared and vanished
// since the user's previous poll.
func (h *MatchHandler) HandleGetMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	user, err := userParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	threshold := -1
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err = strconv.Atoi(raw)
		if err != nil || threshold < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
	}

	writeJSON(w, http.StatusOK, h.deps.PollMatches(r.Context(), user, threshold))
}
