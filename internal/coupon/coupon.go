package coupon

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContentType is the scope level a coupon attaches to.
type ContentType string

const (
	// ContentTypeProgram applies the coupon to every run of every course in a program.
	ContentTypeProgram ContentType = "program"
	// ContentTypeCourse applies the coupon to every run of one course.
	ContentTypeCourse ContentType = "course"
	// ContentTypeCourseRun applies the coupon to one specific run.
	ContentTypeCourseRun ContentType = "courserun"
)

// AmountType is the discount rule a coupon carries.
type AmountType string

const (
	// AmountTypePercentDiscount takes a fraction in [0,1] off the base price.
	AmountTypePercentDiscount AmountType = "percent-discount"
	// AmountTypeFixedDiscount subtracts an absolute amount from the base price.
	AmountTypeFixedDiscount AmountType = "fixed-discount"
	// AmountTypeFixedPrice replaces the base price entirely.
	AmountTypeFixedPrice AmountType = "fixed-price"
)

// Coupon grants a discount within one program. ObjectID is interpreted
// according to ContentType: a program, course, or run identifier.
type Coupon struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"coupon_code"`
	ContentType    ContentType     `json:"content_type"`
	AmountType     AmountType      `json:"amount_type"`
	Amount         decimal.Decimal `json:"amount"`
	ProgramID      int64           `json:"program_id"`
	ObjectID       int64           `json:"object_id"`
	Enabled        bool            `json:"enabled"`
	ActivationDate *time.Time      `json:"activation_date,omitempty"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
}

// RedeemableAt reports whether the coupon can be attached at the given time.
func (c Coupon) RedeemableAt(now time.Time) bool {
	if !c.Enabled {
		return false
	}
	if c.ActivationDate != nil && now.Before(*c.ActivationDate) {
		return false
	}
	if c.ExpirationDate != nil && !now.Before(*c.ExpirationDate) {
		return false
	}
	return true
}

// AppliesTo reports whether the coupon's scope covers the given
// (program, course, run) triple.
func (c Coupon) AppliesTo(programID, courseID, runID int64) bool {
	switch c.ContentType {
	case ContentTypeProgram:
		return c.ObjectID == programID
	case ContentTypeCourse:
		return c.ObjectID == courseID
	case ContentTypeCourseRun:
		return c.ObjectID == runID
	default:
		return false
	}
}

// MatchesCourse reports whether the coupon is course-scoped and targets the
// given course.
func (c Coupon) MatchesCourse(courseID int64) bool {
	return c.ContentType == ContentTypeCourse && c.ObjectID == courseID
}

// AmountText renders the discount for display, e.g. "25% off" or "$50 off".
func (c Coupon) AmountText() string {
	switch c.AmountType {
	case AmountTypePercentDiscount:
		return trimZeros(c.Amount.Mul(decimal.NewFromInt(100))) + "% off"
	case AmountTypeFixedDiscount:
		return "$" + trimZeros(c.Amount) + " off"
	case AmountTypeFixedPrice:
		return "a fixed price of $" + trimZeros(c.Amount)
	default:
		return ""
	}
}

func trimZeros(d decimal.Decimal) string {
	s := d.StringFixed(2)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
