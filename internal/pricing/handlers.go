package pricing

import (
	"context"
	"net/http"

	"github.com/micromasters/dashboard-api/internal/common"
)

// PriceLister loads program base prices.
type PriceLister interface {
	CoursePrices(ctx context.Context) ([]CoursePrice, error)
}

// Handler exposes the course price endpoint.
type Handler struct {
	Store PriceLister
}

// CoursePrices handles GET /api/v1/course_prices.
func (h *Handler) CoursePrices(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing store not configured", nil)
		return
	}
	prices, err := h.Store.CoursePrices(r.Context())
	if err != nil {
		common.RespondError(w, err)
		return
	}
	if prices == nil {
		prices = []CoursePrice{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": prices})
}
