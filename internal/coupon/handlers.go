package coupon

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/micromasters/dashboard-api/internal/common"
)

// Handler exposes coupon redemption endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, validate *validator.Validate) *Handler {
	if validate == nil {
		validate = validator.New()
	}
	return &Handler{Service: service, Validate: validate}
}

type attachPayload struct {
	Code string `json:"coupon_code" validate:"required,min=1,max=64"`
}

// Attach handles POST /api/v1/coupons.
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload attachPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "coupon_code is required", nil)
		return
	}
	attached, err := h.Service.Attach(r.Context(), userID, payload.Code)
	if err != nil {
		common.RespondError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": attached})
}

// List handles GET /api/v1/coupons.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	coupons, err := h.Service.ForUser(r.Context(), userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}
	if coupons == nil {
		coupons = []Coupon{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": coupons})
}
