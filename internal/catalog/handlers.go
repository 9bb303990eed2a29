package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/micromasters/dashboard-api/internal/common"
)

// Handler exposes the catalog endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Programs handles GET /api/v1/programs. Authenticated requests see their
// enrollment state overlaid; anonymous requests get the cached catalog.
func (h *Handler) Programs(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	userID, _ := common.UserID(r.Context())
	programs, err := h.service.UserPrograms(r.Context(), userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}
	if programs == nil {
		programs = []Program{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": programs})
}

// Program handles GET /api/v1/programs/{programID}.
func (h *Handler) Program(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	programID, err := strconv.ParseInt(chi.URLParam(r, "programID"), 10, 64)
	if err != nil || programID <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid program id", nil)
		return
	}
	userID, _ := common.UserID(r.Context())
	programs, err := h.service.UserPrograms(r.Context(), userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}
	for _, program := range programs {
		if program.ID == programID {
			common.JSON(w, http.StatusOK, map[string]any{"data": program})
			return
		}
	}
	common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "program not found", nil)
}
