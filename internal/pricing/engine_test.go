package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/micromasters/dashboard-api/internal/catalog"
	"github.com/micromasters/dashboard-api/internal/coupon"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testCatalog() []catalog.Program {
	return []catalog.Program{
		{
			ID:    1,
			Title: "Data Science",
			Courses: []catalog.Course{
				{
					ID:        11,
					ProgramID: 1,
					Runs: []catalog.CourseRun{
						{ID: 111, CourseID: 11},
						{ID: 112, CourseID: 11},
					},
				},
				{
					ID:        12,
					ProgramID: 1,
					Runs: []catalog.CourseRun{
						{ID: 121, CourseID: 12},
					},
				},
			},
		},
		{
			ID:    2,
			Title: "Supply Chain",
			Courses: []catalog.Course{
				{
					ID:        21,
					ProgramID: 2,
					Runs: []catalog.CourseRun{
						{ID: 211, CourseID: 21},
					},
				},
			},
		},
	}
}

func TestCalculateDiscount(t *testing.T) {
	cases := []struct {
		name       string
		amountType coupon.AmountType
		amount     string
		want       string
	}{
		{"fixed discount", coupon.AmountTypeFixedDiscount, "50", "73"},
		{"fixed discount to zero", coupon.AmountTypeFixedDiscount, "123", "0"},
		{"percent discount", coupon.AmountTypePercentDiscount, "0.5", "61.5"},
		{"percent discount full", coupon.AmountTypePercentDiscount, "1", "0"},
		{"fixed price replaces", coupon.AmountTypeFixedPrice, "50", "50"},
		{"unknown type is a no-op", coupon.AmountType("mystery"), "50", "123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateDiscount(dec("123"), tc.amountType, dec(tc.amount))
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestCalculateRunPriceUnknownBase(t *testing.T) {
	c := coupon.Coupon{ContentType: coupon.ContentTypeProgram, ProgramID: 1, ObjectID: 1, AmountType: coupon.AmountTypeFixedPrice, Amount: dec("10")}
	if got := CalculateRunPrice(111, 11, 1, nil, &c); got != nil {
		t.Fatalf("expected nil price for unknown base, got %s", got)
	}
}

func TestCalculateRunPriceNoCoupon(t *testing.T) {
	base := dec("100")
	got := CalculateRunPrice(111, 11, 1, &base, nil)
	if got == nil || !got.Equal(base) {
		t.Fatalf("expected base price %s, got %v", base, got)
	}
}

func TestCalculateRunPriceScopeMismatch(t *testing.T) {
	base := dec("100")
	c := coupon.Coupon{ContentType: coupon.ContentTypeCourse, ProgramID: 1, ObjectID: 12, AmountType: coupon.AmountTypeFixedDiscount, Amount: dec("40")}
	got := CalculateRunPrice(111, 11, 1, &base, &c)
	if got == nil || !got.Equal(base) {
		t.Fatalf("expected unmodified base price, got %v", got)
	}
}

func TestCalculatePricesNoCouponIdentity(t *testing.T) {
	prices := []CoursePrice{{ProgramID: 1, Price: dec("1000")}, {ProgramID: 2, Price: dec("250")}}
	result := CalculatePrices(testCatalog(), prices, nil)

	for runID, want := range map[int64]string{111: "1000", 112: "1000", 121: "1000", 211: "250"} {
		price, ok := result.PriceForRun(runID)
		if !ok || price == nil || !price.Equal(dec(want)) {
			t.Fatalf("run %d: expected %s, got %v (present=%v)", runID, want, price, ok)
		}
	}
}

func TestCalculatePricesCourseScopeIsolation(t *testing.T) {
	prices := []CoursePrice{{ProgramID: 1, Price: dec("1000")}}
	coupons := []coupon.Coupon{{
		ContentType: coupon.ContentTypeCourse,
		ProgramID:   1,
		ObjectID:    11,
		AmountType:  coupon.AmountTypePercentDiscount,
		Amount:      dec("0.25"),
	}}
	result := CalculatePrices(testCatalog(), prices, coupons)

	for _, runID := range []int64{111, 112} {
		price, _ := result.PriceForRun(runID)
		if price == nil || !price.Equal(dec("750")) {
			t.Fatalf("run %d: expected discounted 750, got %v", runID, price)
		}
	}
	// Other course in the same program keeps the base price.
	price, _ := result.PriceForRun(121)
	if price == nil || !price.Equal(dec("1000")) {
		t.Fatalf("run 121: expected base 1000, got %v", price)
	}
}

func TestCalculatePricesRunScopeIsolation(t *testing.T) {
	prices := []CoursePrice{{ProgramID: 1, Price: dec("1000")}}
	coupons := []coupon.Coupon{{
		ContentType: coupon.ContentTypeCourseRun,
		ProgramID:   1,
		ObjectID:    112,
		AmountType:  coupon.AmountTypeFixedPrice,
		Amount:      dec("10"),
	}}
	result := CalculatePrices(testCatalog(), prices, coupons)

	price, _ := result.PriceForRun(112)
	if price == nil || !price.Equal(dec("10")) {
		t.Fatalf("run 112: expected fixed price 10, got %v", price)
	}
	price, _ = result.PriceForRun(111)
	if price == nil || !price.Equal(dec("1000")) {
		t.Fatalf("run 111: expected base 1000, got %v", price)
	}
}

func TestCalculatePricesMissingProgramPrice(t *testing.T) {
	result := CalculatePrices(testCatalog(), []CoursePrice{{ProgramID: 2, Price: dec("250")}}, nil)
	price, ok := result.PriceForRun(111)
	if !ok {
		t.Fatal("expected run 111 to be present in the result")
	}
	if price != nil {
		t.Fatalf("expected nil price for program without a price entry, got %s", price)
	}
}

func TestCalculatePricesDuplicateEntriesLastWins(t *testing.T) {
	prices := []CoursePrice{
		{ProgramID: 1, Price: dec("1000")},
		{ProgramID: 1, Price: dec("500")},
	}
	coupons := []coupon.Coupon{
		{ContentType: coupon.ContentTypeProgram, ProgramID: 1, ObjectID: 1, AmountType: coupon.AmountTypeFixedDiscount, Amount: dec("100")},
		{ContentType: coupon.ContentTypeProgram, ProgramID: 1, ObjectID: 1, AmountType: coupon.AmountTypeFixedDiscount, Amount: dec("50")},
	}
	result := CalculatePrices(testCatalog(), prices, coupons)
	price, _ := result.PriceForRun(111)
	if price == nil || !price.Equal(dec("450")) {
		t.Fatalf("expected 500-50=450, got %v", price)
	}
}

func TestCalculatePricesIdempotent(t *testing.T) {
	prices := []CoursePrice{{ProgramID: 1, Price: dec("1000")}}
	coupons := []coupon.Coupon{{
		ContentType: coupon.ContentTypeCourse,
		ProgramID:   1,
		ObjectID:    11,
		AmountType:  coupon.AmountTypePercentDiscount,
		Amount:      dec("0.5"),
	}}
	first := CalculatePrices(testCatalog(), prices, coupons)
	second := CalculatePrices(testCatalog(), prices, coupons)
	for _, runID := range []int64{111, 112, 121, 211} {
		a, aok := first.PriceForRun(runID)
		b, bok := second.PriceForRun(runID)
		if aok != bok {
			t.Fatalf("run %d: presence differs between calls", runID)
		}
		if (a == nil) != (b == nil) {
			t.Fatalf("run %d: nilness differs between calls", runID)
		}
		if a != nil && !a.Equal(*b) {
			t.Fatalf("run %d: %s != %s", runID, a, b)
		}
	}
}

func TestCouponForCourse(t *testing.T) {
	coupons := []coupon.Coupon{{
		ContentType: coupon.ContentTypeCourse,
		ProgramID:   1,
		ObjectID:    11,
		AmountType:  coupon.AmountTypeFixedDiscount,
		Amount:      dec("50"),
	}}
	result := CalculatePrices(testCatalog(), nil, coupons)

	if _, ok := result.CouponForCourse(catalog.Course{ID: 11, ProgramID: 1}); !ok {
		t.Fatal("expected coupon for course 11")
	}
	if _, ok := result.CouponForCourse(catalog.Course{ID: 12, ProgramID: 1}); ok {
		t.Fatal("expected no coupon for sibling course 12")
	}
	if _, ok := result.CouponForProgram(1); !ok {
		t.Fatal("expected active coupon for program 1")
	}
}
