package finaid

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/micromasters/dashboard-api/internal/common"
)

// StateLoader loads a learner's aid standing for a program.
type StateLoader interface {
	StateFor(ctx context.Context, userID uuid.UUID, programID int64) (State, error)
}

// Handler exposes the financial aid endpoint.
type Handler struct {
	Store StateLoader
}

// State handles GET /api/v1/financial_aid/{programID}.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "financial aid store not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user identity", nil)
		return
	}
	programID, err := strconv.ParseInt(chi.URLParam(r, "programID"), 10, 64)
	if err != nil || programID < 1 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "programID must be a positive integer", nil)
		return
	}
	state, err := h.Store.StateFor(r.Context(), uid, programID)
	if err != nil {
		common.RespondError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": state})
}
