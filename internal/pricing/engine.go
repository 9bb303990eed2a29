package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/micromasters/dashboard-api/internal/catalog"
	"github.com/micromasters/dashboard-api/internal/coupon"
)

// CoursePrice is the base, pre-discount price applied to every course of a
// program.
type CoursePrice struct {
	ProgramID                int64           `json:"program_id"`
	Price                    decimal.Decimal `json:"price"`
	FinancialAidAvailability bool            `json:"financial_aid_availability"`
}

// CalculatedPrices holds the effective price of every run in a catalog plus
// the coupon considered active for each program. It is rebuilt from scratch
// on every computation, never mutated.
type CalculatedPrices struct {
	runPrices map[int64]*decimal.Decimal
	coupons   map[int64]coupon.Coupon
}

// PriceForRun returns the effective price of a run. A nil price means the
// program's base price is unknown, which is distinct from zero.
func (p CalculatedPrices) PriceForRun(runID int64) (*decimal.Decimal, bool) {
	price, ok := p.runPrices[runID]
	return price, ok
}

// CouponForProgram returns the coupon considered active for a program, if any.
func (p CalculatedPrices) CouponForProgram(programID int64) (coupon.Coupon, bool) {
	c, ok := p.coupons[programID]
	return c, ok
}

// CouponForCourse returns the course-scoped coupon targeting the given
// course, if the course's program carries one.
func (p CalculatedPrices) CouponForCourse(course catalog.Course) (coupon.Coupon, bool) {
	c, ok := p.coupons[course.ProgramID]
	if !ok || !c.MatchesCourse(course.ID) {
		return coupon.Coupon{}, false
	}
	return c, true
}

// CalculatePrices computes the effective price of every run in the catalog.
// At most one price entry and one coupon are considered per program; when the
// input lists contain duplicates for the same program the later entry wins.
func CalculatePrices(programs []catalog.Program, prices []CoursePrice, coupons []coupon.Coupon) CalculatedPrices {
	priceByProgram := make(map[int64]decimal.Decimal, len(prices))
	for _, p := range prices {
		priceByProgram[p.ProgramID] = p.Price
	}
	couponByProgram := make(map[int64]coupon.Coupon, len(coupons))
	for _, c := range coupons {
		couponByProgram[c.ProgramID] = c
	}

	result := CalculatedPrices{
		runPrices: make(map[int64]*decimal.Decimal),
		coupons:   couponByProgram,
	}
	for _, program := range programs {
		var base *decimal.Decimal
		if p, ok := priceByProgram[program.ID]; ok {
			base = &p
		}
		var active *coupon.Coupon
		if c, ok := couponByProgram[program.ID]; ok {
			active = &c
		}
		for _, course := range program.Courses {
			for _, run := range course.Runs {
				result.runPrices[run.ID] = CalculateRunPrice(run.ID, course.ID, program.ID, base, active)
			}
		}
	}
	return result
}

// CalculateRunPrice computes the effective price of one run. A nil result
// means the price is unknown. A coupon scoped to a different course or run
// of the same program leaves the base price untouched.
func CalculateRunPrice(runID, courseID, programID int64, price *decimal.Decimal, c *coupon.Coupon) *decimal.Decimal {
	if price == nil {
		return nil
	}
	if c == nil || !c.AppliesTo(programID, courseID, runID) {
		out := *price
		return &out
	}
	discounted := CalculateDiscount(*price, c.AmountType, c.Amount)
	return &discounted
}

// CalculateDiscount applies one discount rule to a price. Percent amounts
// are fractions in [0,1]; fixed discounts may drive the result negative,
// clamping is a presentation concern. An unrecognised amount type leaves the
// price unchanged rather than failing.
func CalculateDiscount(price decimal.Decimal, amountType coupon.AmountType, amount decimal.Decimal) decimal.Decimal {
	switch amountType {
	case coupon.AmountTypePercentDiscount:
		return price.Mul(decimal.NewFromInt(1).Sub(amount))
	case coupon.AmountTypeFixedDiscount:
		return price.Sub(amount)
	case coupon.AmountTypeFixedPrice:
		return amount
	default:
		return price
	}
}
