package coupon

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/micromasters/dashboard-api/internal/common"
	"github.com/micromasters/dashboard-api/internal/obs"
)

// Querier captures the store methods the service needs.
type Querier interface {
	GetByCode(ctx context.Context, code string) (Coupon, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Coupon, error)
	Attach(ctx context.Context, userID, couponID uuid.UUID) error
}

// DashboardInvalidator drops a learner's cached dashboard after their
// coupon set changes.
type DashboardInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// RefreshEnqueuer schedules a background dashboard rebuild.
type RefreshEnqueuer interface {
	EnqueueRefresh(ctx context.Context, userID string) error
}

// Service coordinates coupon redemption.
type Service struct {
	Store       Querier
	Invalidator DashboardInvalidator
	Enqueuer    RefreshEnqueuer
	Logger      zerolog.Logger
	Now         func() time.Time
}

// Attach validates the code and records the learner holding the coupon.
// Attaching a coupon the learner already holds is not an error.
func (s *Service) Attach(ctx context.Context, userID string, code string) (Coupon, error) {
	if s.Store == nil {
		return Coupon{}, errors.New("coupon: store not configured")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Coupon{}, common.NewAppError("UNAUTHORIZED", "invalid user identity", http.StatusUnauthorized, err)
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		obs.CouponAttachTotal.WithLabelValues("invalid").Inc()
		return Coupon{}, common.NewAppError("BAD_REQUEST", "coupon code is required", http.StatusBadRequest, nil)
	}

	c, err := s.Store.GetByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.CouponAttachTotal.WithLabelValues("invalid").Inc()
			return Coupon{}, common.NewAppError("NOT_FOUND", "coupon not found", http.StatusNotFound, err)
		}
		obs.CouponAttachTotal.WithLabelValues("error").Inc()
		return Coupon{}, err
	}
	if !c.RedeemableAt(s.now()) {
		obs.CouponAttachTotal.WithLabelValues("invalid").Inc()
		return Coupon{}, common.NewAppError("GONE", "coupon is not redeemable", http.StatusGone, nil)
	}

	if err := s.Store.Attach(ctx, uid, c.ID); err != nil {
		if errors.Is(err, ErrAlreadyAttached) {
			obs.CouponAttachTotal.WithLabelValues("duplicate").Inc()
			return c, nil
		}
		obs.CouponAttachTotal.WithLabelValues("error").Inc()
		return Coupon{}, err
	}
	obs.CouponAttachTotal.WithLabelValues("attached").Inc()

	if s.Invalidator != nil {
		if err := s.Invalidator.InvalidateUser(ctx, userID); err != nil {
			s.Logger.Warn().Err(err).Str("user_id", userID).Msg("invalidate dashboard after coupon attach")
		}
	}
	if s.Enqueuer != nil {
		if err := s.Enqueuer.EnqueueRefresh(ctx, userID); err != nil {
			s.Logger.Warn().Err(err).Str("user_id", userID).Msg("enqueue dashboard refresh after coupon attach")
		}
	}
	return c, nil
}

// ForUser returns the learner's attached coupons.
func (s *Service) ForUser(ctx context.Context, userID string) ([]Coupon, error) {
	if s.Store == nil {
		return nil, errors.New("coupon: store not configured")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, common.NewAppError("UNAUTHORIZED", "invalid user identity", http.StatusUnauthorized, err)
	}
	return s.Store.ListForUser(ctx, uid)
}

// RedeemableForUser filters the learner's coupons down to those usable now,
// which is what the pricing engine consumes.
func (s *Service) RedeemableForUser(ctx context.Context, userID string) ([]Coupon, error) {
	coupons, err := s.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	usable := coupons[:0]
	for _, c := range coupons {
		if c.RedeemableAt(now) {
			usable = append(usable, c)
		}
	}
	return usable, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
