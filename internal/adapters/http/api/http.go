// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	service "github.com/jfeo/artswipe/internal/app"
	"github.com/jfeo/artswipe/internal/domain/matchset"
	"github.com/jfeo/artswipe/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// NextItem picks the next item to present to the user.
	NextItem(ctx context.Context, user string) (model.Item, error)

	// RecordChoice upserts the user's decision on an item.
	RecordChoice(ctx context.Context, user, itemID string, decision bool) error

	// PollMatches reports matches plus the delta since the previous poll.
	// A negative threshold selects the configured default.
	PollMatches(ctx context.Context, user string, threshold int) matchset.Result

	// State operations back the debug and persistence endpoints.
	Dump(ctx context.Context) DebugState
	Reset(ctx context.Context) error
	SaveState(ctx context.Context, path string) error
	LoadState(ctx context.Context, path string) error
}

// DebugState mirrors the read shape returned by the state dump.
type DebugState = service.DebugState

// Server wires HTTP routes for the business API.
type Server struct {
	cultureHandler *CultureHandler
	chooseHandler  *ChooseHandler
	matchHandler   *MatchHandler
	stateHandler   *StateHandler
	healthHandler  *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		cultureHandler: NewCultureHandler(deps),
		chooseHandler:  NewChooseHandler(deps),
		matchHandler:   NewMatchHandler(deps),
		stateHandler:   NewStateHandler(deps),
		healthHandler:  NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/culture", MetricsMiddleware(s.cultureHandler.HandleGetCulture, "culture"))
	mux.HandleFunc("/choose", MetricsMiddleware(s.chooseHandler.HandleChoose, "choose"))
	mux.HandleFunc("/match", MetricsMiddleware(s.matchHandler.HandleGetMatches, "match"))
	mux.HandleFunc("/debug", MetricsMiddleware(s.stateHandler.HandleDebug, "debug"))
	mux.HandleFunc("/clear", MetricsMiddleware(s.stateHandler.HandleClear, "clear"))
	mux.HandleFunc("/save", MetricsMiddleware(s.stateHandler.HandleSave, "save"))
	mux.HandleFunc("/load", MetricsMiddleware(s.stateHandler.HandleLoad, "load"))
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// userParam extracts and validates the user query parameter. User
// identities are UUIDs; the canonical lowercase form is returned.
func userParam(r *http.Request) (string, error) {
	raw := r.URL.Query().Get("user")
	if raw == "" {
		return "", ErrMissingUser
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrBadUser
	}
	return id.String(), nil
}
