// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/jfeo/artswipe/internal/domain/model"
	"github.com/jfeo/artswipe/internal/domain/selector"
)

// maxCultureCount caps GET /culture?count so one request cannot drain
// the pool.
const maxCultureCount = 10

// CultureDependencies defines the interface for item selection.
type CultureDependencies interface {
	NextItem(ctx context.Context, user string) (model.Item, error)
}

// CultureHandler handles next-item requests.
type CultureHandler struct {
	deps CultureDependencies
}

// NewCultureHandler creates a new culture handler.
func NewCultureHandler(deps CultureDependencies) *CultureHandler {
	return &CultureHandler{deps: deps}
}

// HandleGetCulture handles GET /culture?user=U[&count=N] requests.
// It returns a JSON array of items, fewer than requested when the
// selection runs dry, and 503 when nothing can be served at all.
func (h *CultureHandler) HandleGetCulture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	user, err := userParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	count := 1
	if raw := r.URL.Query().Get("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if count > maxCultureCount {
			count = maxCultureCount
		}
	}

	items := make([]model.Item, 0, count)
	for i := 0; i < count; i++ {
		item, err := h.deps.NextItem(r.Context(), user)
		if err != nil {
			if errors.Is(err, selector.ErrUnavailable) {
				break
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		writeError(w, http.StatusServiceUnavailable, "unavailable", selector.ErrUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
