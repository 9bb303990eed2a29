package coupon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/micromasters/dashboard-api/internal/common"
)

var testNow = time.Date(2017, time.March, 15, 12, 0, 0, 0, time.UTC)

type fakeCouponStore struct {
	byCode    map[string]Coupon
	attached  map[uuid.UUID][]Coupon
	attachErr error
}

func newFakeCouponStore() *fakeCouponStore {
	return &fakeCouponStore{
		byCode:   make(map[string]Coupon),
		attached: make(map[uuid.UUID][]Coupon),
	}
}

func (f *fakeCouponStore) GetByCode(ctx context.Context, code string) (Coupon, error) {
	c, ok := f.byCode[code]
	if !ok {
		return Coupon{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeCouponStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]Coupon, error) {
	return f.attached[userID], nil
}

func (f *fakeCouponStore) Attach(ctx context.Context, userID, couponID uuid.UUID) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	for _, c := range f.attached[userID] {
		if c.ID == couponID {
			return ErrAlreadyAttached
		}
	}
	for _, c := range f.byCode {
		if c.ID == couponID {
			f.attached[userID] = append(f.attached[userID], c)
			return nil
		}
	}
	return ErrNotFound
}

type recordingInvalidator struct{ users []string }

func (r *recordingInvalidator) InvalidateUser(ctx context.Context, userID string) error {
	r.users = append(r.users, userID)
	return nil
}

type recordingEnqueuer struct{ users []string }

func (r *recordingEnqueuer) EnqueueRefresh(ctx context.Context, userID string) error {
	r.users = append(r.users, userID)
	return nil
}

func redeemableCoupon(code string) Coupon {
	return Coupon{
		ID:          uuid.New(),
		Code:        code,
		ContentType: ContentTypeProgram,
		AmountType:  AmountTypePercentDiscount,
		Amount:      decimal.RequireFromString("0.25"),
		ProgramID:   7,
		ObjectID:    7,
		Enabled:     true,
	}
}

func TestAttach(t *testing.T) {
	store := newFakeCouponStore()
	store.byCode["SPRING25"] = redeemableCoupon("SPRING25")
	invalidator := &recordingInvalidator{}
	enqueuer := &recordingEnqueuer{}
	svc := &Service{
		Store:       store,
		Invalidator: invalidator,
		Enqueuer:    enqueuer,
		Now:         func() time.Time { return testNow },
	}
	userID := uuid.New().String()

	attached, err := svc.Attach(context.Background(), userID, "SPRING25")
	require.NoError(t, err)
	require.Equal(t, "SPRING25", attached.Code)
	require.Equal(t, []string{userID}, invalidator.users)
	require.Equal(t, []string{userID}, enqueuer.users)

	coupons, err := svc.ForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, coupons, 1)
}

func TestAttachDuplicateIsNotAnError(t *testing.T) {
	store := newFakeCouponStore()
	store.byCode["SPRING25"] = redeemableCoupon("SPRING25")
	svc := &Service{Store: store, Now: func() time.Time { return testNow }}
	userID := uuid.New().String()

	_, err := svc.Attach(context.Background(), userID, "SPRING25")
	require.NoError(t, err)
	again, err := svc.Attach(context.Background(), userID, "SPRING25")
	require.NoError(t, err)
	require.Equal(t, "SPRING25", again.Code)

	coupons, err := svc.ForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, coupons, 1)
}

func TestAttachUnknownCode(t *testing.T) {
	svc := &Service{Store: newFakeCouponStore(), Now: func() time.Time { return testNow }}

	_, err := svc.Attach(context.Background(), uuid.New().String(), "NOPE")
	require.Error(t, err)
	appErr := common.AsAppError(err)
	require.NotNil(t, appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestAttachExpiredCoupon(t *testing.T) {
	store := newFakeCouponStore()
	expired := redeemableCoupon("OLD")
	past := testNow.Add(-time.Hour)
	expired.ExpirationDate = &past
	store.byCode["OLD"] = expired
	svc := &Service{Store: store, Now: func() time.Time { return testNow }}

	_, err := svc.Attach(context.Background(), uuid.New().String(), "OLD")
	require.Error(t, err)
	appErr := common.AsAppError(err)
	require.NotNil(t, appErr)
	require.Equal(t, http.StatusGone, appErr.HTTPStatus)
}

func TestAttachDisabledCoupon(t *testing.T) {
	store := newFakeCouponStore()
	disabled := redeemableCoupon("OFF")
	disabled.Enabled = false
	store.byCode["OFF"] = disabled
	svc := &Service{Store: store, Now: func() time.Time { return testNow }}

	_, err := svc.Attach(context.Background(), uuid.New().String(), "OFF")
	require.Error(t, err)
}

func TestRedeemableForUserFiltersExpired(t *testing.T) {
	store := newFakeCouponStore()
	userID := uuid.New()
	live := redeemableCoupon("LIVE")
	expired := redeemableCoupon("DEAD")
	past := testNow.Add(-time.Minute)
	expired.ExpirationDate = &past
	store.attached[userID] = []Coupon{live, expired}
	svc := &Service{Store: store, Now: func() time.Time { return testNow }}

	coupons, err := svc.RedeemableForUser(context.Background(), userID.String())
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	require.Equal(t, "LIVE", coupons[0].Code)
}

func TestAttachHandler(t *testing.T) {
	store := newFakeCouponStore()
	store.byCode["SPRING25"] = redeemableCoupon("SPRING25")
	svc := &Service{Store: store, Now: func() time.Time { return testNow }}
	handler := NewHandler(svc, nil)
	userID := uuid.New().String()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons", strings.NewReader(`{"coupon_code":"SPRING25"}`))
	req = req.WithContext(common.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	handler.Attach(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "SPRING25")
}

func TestAttachHandlerRejectsEmptyCode(t *testing.T) {
	handler := NewHandler(&Service{Store: newFakeCouponStore()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons", strings.NewReader(`{"coupon_code":""}`))
	req = req.WithContext(common.WithUserID(req.Context(), uuid.New().String()))
	rec := httptest.NewRecorder()
	handler.Attach(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttachHandlerRequiresAuth(t *testing.T) {
	handler := NewHandler(&Service{Store: newFakeCouponStore()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons", strings.NewReader(`{"coupon_code":"X"}`))
	rec := httptest.NewRecorder()
	handler.Attach(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListHandlerEmptySet(t *testing.T) {
	handler := NewHandler(&Service{Store: newFakeCouponStore()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coupons", nil)
	req = req.WithContext(common.WithUserID(req.Context(), uuid.New().String()))
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":[]}`, rec.Body.String())
}
