package api

import (
	"errors"
	"net/http"

	service "github.com/okian/defscout/internal/app"
	"github.com/okian/defscout/internal/domain/types"
)

// RefreshDependencies starts pipeline runs.
type RefreshDependencies interface {
	// Trigger starts a run in the background.
	Trigger() error
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// HandleRefresh handles POST /refresh. The run happens in the background;
// progress is visible through /stats.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	err := h.deps.Trigger()
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, types.Refresh{Status: "started"})
	case errors.Is(err, service.ErrRefreshInProgress):
		writeError(w, http.StatusConflict, "refresh_in_progress", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
