package dashboard

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/micromasters/dashboard-api/internal/common"
)

// Handler exposes the assembled dashboard endpoint.
type Handler struct {
	Service *Service
}

// Dashboard handles GET /api/v1/dashboard. The expanded query parameter is
// a comma separated list of course ids whose re-enroll details are open.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "dashboard service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	expanded, err := parseExpanded(r.URL.Query().Get("expanded"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "expanded must be a comma separated list of course ids", nil)
		return
	}
	built, err := h.Service.Build(r.Context(), userID, expanded)
	if err != nil {
		common.RespondError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": built})
}

func parseExpanded(raw string) (map[int64]bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	expanded := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id < 1 {
			return nil, strconv.ErrSyntax
		}
		expanded[id] = true
	}
	return expanded, nil
}
