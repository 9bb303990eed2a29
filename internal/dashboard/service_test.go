package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/micromasters/dashboard-api/internal/catalog"
	"github.com/micromasters/dashboard-api/internal/common"
	"github.com/micromasters/dashboard-api/internal/coupon"
	"github.com/micromasters/dashboard-api/internal/finaid"
	"github.com/micromasters/dashboard-api/internal/pricing"
	"github.com/micromasters/dashboard-api/internal/progress"
)

var testNow = time.Date(2017, time.March, 15, 12, 0, 0, 0, time.UTC)

type fakeCatalog struct {
	programs []catalog.Program
	calls    int
}

func (f *fakeCatalog) UserPrograms(ctx context.Context, userID string) ([]catalog.Program, error) {
	f.calls++
	return f.programs, nil
}

type fakePrices struct{ prices []pricing.CoursePrice }

func (f fakePrices) CoursePrices(ctx context.Context) ([]pricing.CoursePrice, error) {
	return f.prices, nil
}

type fakeCoupons struct{ coupons []coupon.Coupon }

func (f fakeCoupons) RedeemableForUser(ctx context.Context, userID string) ([]coupon.Coupon, error) {
	return f.coupons, nil
}

type fakeAid struct{ state finaid.State }

func (f fakeAid) StateFor(ctx context.Context, userID uuid.UUID, programID int64) (finaid.State, error) {
	return f.state, nil
}

func days(n int) *time.Time {
	t := testNow.AddDate(0, 0, n)
	return &t
}

func auditedProgram() []catalog.Program {
	return []catalog.Program{{
		ID:                       7,
		Title:                    "Supply Chain Management",
		FinancialAidAvailability: true,
		Courses: []catalog.Course{{
			ID:        42,
			ProgramID: 7,
			Title:     "Logistics Fundamentals",
			Runs: []catalog.CourseRun{{
				ID:                    1,
				CourseID:              42,
				Title:                 "Spring 2017",
				Status:                catalog.RunStatusCanUpgrade,
				CourseStartDate:       days(-30),
				CourseEndDate:         days(30),
				CourseUpgradeDeadline: days(5),
			}},
		}},
	}}
}

func newService(t *testing.T, cat *fakeCatalog, coupons []coupon.Coupon, aid AidLoader) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Service{
		Catalog:    cat,
		Prices:     fakePrices{prices: []pricing.CoursePrice{{ProgramID: 7, Price: decimal.NewFromInt(1000)}}},
		Coupons:    fakeCoupons{coupons: coupons},
		Aid:        aid,
		Cache:      catalog.NewCache(client, time.Minute),
		Now:        func() time.Time { return testNow },
		SupportURL: "mailto:support@micromasters.example",
	}
}

func programCoupon() coupon.Coupon {
	return coupon.Coupon{
		ID:          uuid.New(),
		Code:        "SPRING25",
		ContentType: coupon.ContentTypeProgram,
		AmountType:  coupon.AmountTypePercentDiscount,
		Amount:      decimal.RequireFromString("0.25"),
		ProgramID:   7,
		ObjectID:    7,
		Enabled:     true,
	}
}

func TestBuildAssemblesDashboard(t *testing.T) {
	svc := newService(t, &fakeCatalog{programs: auditedProgram()}, []coupon.Coupon{programCoupon()}, fakeAid{})

	built, err := svc.Build(context.Background(), uuid.New().String(), nil)
	require.NoError(t, err)
	require.Len(t, built.Programs, 1)

	program := built.Programs[0]
	require.Equal(t, int64(7), program.ID)
	require.NotNil(t, program.Coupon)
	require.False(t, program.FinancialAidPending)
	require.Len(t, program.Courses, 1)

	course := program.Courses[0]
	require.NotNil(t, course.Runs[0].Price)
	require.True(t, course.Runs[0].Price.Equal(decimal.NewFromInt(750)), "got %s", course.Runs[0].Price)

	require.Len(t, course.Messages, 1)
	require.Contains(t, course.Messages[0].Message, "pay for the course")
	require.Contains(t, course.Messages[0].Message, "Mar 20, 2017")
	require.NotNil(t, course.Messages[0].Action)
	require.Equal(t, progress.ActionPay, course.Messages[0].Action.Type)
}

func TestBuildWithoutPriceLeavesRunPriceUnset(t *testing.T) {
	svc := newService(t, &fakeCatalog{programs: auditedProgram()}, nil, fakeAid{})
	svc.Prices = fakePrices{}

	built, err := svc.Build(context.Background(), uuid.New().String(), nil)
	require.NoError(t, err)
	require.Nil(t, built.Programs[0].Courses[0].Runs[0].Price)
}

func TestBuildCachesCollapsedView(t *testing.T) {
	cat := &fakeCatalog{programs: auditedProgram()}
	svc := newService(t, cat, nil, fakeAid{})
	userID := uuid.New().String()

	for i := 0; i < 3; i++ {
		_, err := svc.Build(context.Background(), userID, nil)
		require.NoError(t, err)
	}
	require.Equal(t, 1, cat.calls)
}

func TestBuildExpandedBypassesCache(t *testing.T) {
	cat := &fakeCatalog{programs: auditedProgram()}
	svc := newService(t, cat, nil, fakeAid{})
	userID := uuid.New().String()

	for i := 0; i < 2; i++ {
		_, err := svc.Build(context.Background(), userID, map[int64]bool{42: true})
		require.NoError(t, err)
	}
	require.Equal(t, 2, cat.calls)
}

func TestInvalidateUserDropsCache(t *testing.T) {
	cat := &fakeCatalog{programs: auditedProgram()}
	svc := newService(t, cat, nil, fakeAid{})
	userID := uuid.New().String()

	_, err := svc.Build(context.Background(), userID, nil)
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateUser(context.Background(), userID))
	_, err = svc.Build(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Equal(t, 2, cat.calls)
}

func TestRebuildRefreshesCache(t *testing.T) {
	cat := &fakeCatalog{programs: auditedProgram()}
	svc := newService(t, cat, nil, fakeAid{})
	userID := uuid.New().String()

	require.NoError(t, svc.Rebuild(context.Background(), userID))
	require.Equal(t, 1, cat.calls)

	// the rebuilt payload serves subsequent requests from cache
	_, err := svc.Build(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Equal(t, 1, cat.calls)
}

func TestFinancialAidPendingSwapsPayAction(t *testing.T) {
	aid := fakeAid{state: finaid.State{HasUserApplied: true, ApplicationStatus: finaid.StatusPendingDocs}}
	svc := newService(t, &fakeCatalog{programs: auditedProgram()}, nil, aid)

	built, err := svc.Build(context.Background(), uuid.New().String(), nil)
	require.NoError(t, err)

	program := built.Programs[0]
	require.True(t, program.FinancialAidPending)
	course := program.Courses[0]
	require.NotNil(t, course.Messages[0].Action)
	require.Equal(t, progress.ActionCalculatePrice, course.Messages[0].Action.Type)
}

func TestDashboardHandler(t *testing.T) {
	svc := newService(t, &fakeCatalog{programs: auditedProgram()}, nil, fakeAid{})
	handler := &Handler{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req = req.WithContext(common.WithUserID(req.Context(), uuid.New().String()))
	rec := httptest.NewRecorder()
	handler.Dashboard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Supply Chain Management")
}

func TestDashboardHandlerRequiresAuth(t *testing.T) {
	handler := &Handler{Service: &Service{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.Dashboard(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerRejectsBadExpanded(t *testing.T) {
	svc := newService(t, &fakeCatalog{}, nil, fakeAid{})
	handler := &Handler{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?expanded=abc", nil)
	req = req.WithContext(common.WithUserID(req.Context(), uuid.New().String()))
	rec := httptest.NewRecorder()
	handler.Dashboard(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
