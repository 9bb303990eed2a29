package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/micromasters/dashboard-api/internal/catalog"
	"github.com/micromasters/dashboard-api/internal/coupon"
	"github.com/micromasters/dashboard-api/internal/finaid"
	"github.com/micromasters/dashboard-api/internal/obs"
	"github.com/micromasters/dashboard-api/internal/pricing"
	"github.com/micromasters/dashboard-api/internal/progress"
)

const cacheKeyPrefix = "dashboard:user:"

// CatalogLoader loads the catalog with the learner's state overlaid.
type CatalogLoader interface {
	UserPrograms(ctx context.Context, userID string) ([]catalog.Program, error)
}

// PriceLoader loads program base prices.
type PriceLoader interface {
	CoursePrices(ctx context.Context) ([]pricing.CoursePrice, error)
}

// CouponLoader loads the learner's usable coupons.
type CouponLoader interface {
	RedeemableForUser(ctx context.Context, userID string) ([]coupon.Coupon, error)
}

// AidLoader loads the learner's financial aid standing.
type AidLoader interface {
	StateFor(ctx context.Context, userID uuid.UUID, programID int64) (finaid.State, error)
}

// Dashboard is the fully assembled per-learner payload.
type Dashboard struct {
	Programs []ProgramView `json:"programs"`
	BuiltAt  time.Time     `json:"built_at"`
}

// ProgramView is one program with its courses, coupon, and aid state.
type ProgramView struct {
	ID                  int64          `json:"id"`
	Title               string         `json:"title"`
	Courses             []CourseView   `json:"courses"`
	Coupon              *coupon.Coupon `json:"coupon,omitempty"`
	FinancialAidPending bool           `json:"financial_aid_pending"`
}

// CourseView is one course with its priced runs and status messages.
type CourseView struct {
	catalog.Course
	Messages []progress.StatusMessage `json:"messages,omitempty"`
}

// Service assembles the learner dashboard from catalog state, prices,
// coupons, and aid standing, caching the result until something changes.
type Service struct {
	Catalog    CatalogLoader
	Prices     PriceLoader
	Coupons    CouponLoader
	Aid        AidLoader
	Cache      *catalog.Cache
	Logger     zerolog.Logger
	Now        func() time.Time
	SupportURL string
}

// Build returns the learner's dashboard. Only the collapsed default view is
// cached; requests with expanded courses are always assembled fresh.
func (s *Service) Build(ctx context.Context, userID string, expanded map[int64]bool) (Dashboard, error) {
	if s.Catalog == nil || s.Prices == nil || s.Coupons == nil {
		return Dashboard{}, errors.New("dashboard: service not fully configured")
	}
	cacheable := len(expanded) == 0
	key := cacheKeyPrefix + userID
	if cacheable {
		var cached Dashboard
		if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
			obs.DashboardBuildsTotal.WithLabelValues("cache").Inc()
			return cached, nil
		}
	}

	started := s.now()
	built, err := s.assemble(ctx, userID, expanded)
	if err != nil {
		return Dashboard{}, err
	}
	obs.DashboardBuildsTotal.WithLabelValues("rebuild").Inc()
	obs.DashboardBuildLatency.Observe(obs.DurationMillis(time.Since(started)))

	if cacheable {
		if err := s.Cache.SetJSON(ctx, key, built); err != nil {
			s.Logger.Warn().Err(err).Str("user_id", userID).Msg("cache dashboard")
		}
	}
	return built, nil
}

// InvalidateUser drops the learner's cached dashboard.
func (s *Service) InvalidateUser(ctx context.Context, userID string) error {
	return s.Cache.Invalidate(ctx, cacheKeyPrefix+userID)
}

// Rebuild assembles and caches the collapsed dashboard, used by the
// background refresh worker.
func (s *Service) Rebuild(ctx context.Context, userID string) error {
	if err := s.InvalidateUser(ctx, userID); err != nil {
		return err
	}
	_, err := s.Build(ctx, userID, nil)
	return err
}

func (s *Service) assemble(ctx context.Context, userID string, expanded map[int64]bool) (Dashboard, error) {
	programs, err := s.Catalog.UserPrograms(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	prices, err := s.Prices.CoursePrices(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	coupons, err := s.Coupons.RedeemableForUser(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	calculated := pricing.CalculatePrices(programs, prices, coupons)
	obs.PriceComputationsTotal.Inc()

	now := s.now()
	views := make([]ProgramView, 0, len(programs))
	for _, program := range programs {
		view := ProgramView{ID: program.ID, Title: program.Title}
		if c, ok := calculated.CouponForProgram(program.ID); ok {
			view.Coupon = &c
		}
		view.FinancialAidPending = s.aidPending(ctx, userID, program)

		for _, course := range program.Courses {
			view.Courses = append(view.Courses, s.courseView(course, calculated, view, expanded, now))
		}
		views = append(views, view)
	}
	return Dashboard{Programs: views, BuiltAt: now}, nil
}

func (s *Service) courseView(course catalog.Course, calculated pricing.CalculatedPrices, program ProgramView, expanded map[int64]bool, now time.Time) CourseView {
	for i := range course.Runs {
		if price, ok := calculated.PriceForRun(course.Runs[i].ID); ok && price != nil {
			value := price.Copy()
			course.Runs[i].Price = &value
		}
	}

	view := CourseView{Course: course}
	firstRun, _ := course.FirstRun()
	messages, show := progress.CalculateMessages(progress.Input{
		Course:              course,
		FirstRun:            firstRun,
		Now:                 now,
		ExpandedCourses:     expanded,
		Coupon:              program.Coupon,
		FinancialAidPending: program.FinancialAidPending,
		SupportURL:          s.SupportURL,
	})
	if show {
		view.Messages = messages
	}
	return view
}

// aidPending never fails the whole dashboard; a broken aid lookup degrades
// to showing the regular payment prompt.
func (s *Service) aidPending(ctx context.Context, userID string, program catalog.Program) bool {
	if s.Aid == nil || !program.FinancialAidAvailability {
		return false
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return false
	}
	state, err := s.Aid.StateFor(ctx, uid, program.ID)
	if err != nil {
		s.Logger.Warn().Err(err).Int64("program_id", program.ID).Msg("load financial aid state")
		return false
	}
	return state.Pending()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
