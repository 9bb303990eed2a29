package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunStatus describes the learner's relationship to a course run.
type RunStatus string

const (
	// RunStatusOffered marks a run open for enrollment that the learner has not joined.
	RunStatusOffered RunStatus = "offered"
	// RunStatusPendingEnrollment marks a run the learner enrolled in before it opened.
	RunStatusPendingEnrollment RunStatus = "pending-enrollment"
	// RunStatusCurrentlyEnrolled marks a run the learner is actively taking.
	RunStatusCurrentlyEnrolled RunStatus = "currently-enrolled"
	// RunStatusWillAttend marks a future run the learner is enrolled in.
	RunStatusWillAttend RunStatus = "will-attend"
	// RunStatusCanUpgrade marks an audited run still eligible for payment.
	RunStatusCanUpgrade RunStatus = "can-upgrade"
	// RunStatusMissedDeadline marks a run whose payment deadline has passed unpaid.
	RunStatusMissedDeadline RunStatus = "missed-deadline"
	// RunStatusPassed marks a run the learner completed successfully.
	RunStatusPassed RunStatus = "passed"
	// RunStatusNotPassed marks a run the learner completed without passing.
	RunStatusNotPassed RunStatus = "not-passed"
	// RunStatusPaidButNotEnrolled marks the anomalous paid-without-enrollment state.
	RunStatusPaidButNotEnrolled RunStatus = "paid-but-not-enrolled"
)

// ExamResult is one proctored exam attempt for a course.
type ExamResult struct {
	PercentageGrade float64   `json:"percentage_grade"`
	Passed          bool      `json:"passed"`
	ExamDate        time.Time `json:"exam_date"`
}

// CourseRun is one concrete offering of a course together with the
// learner's state for it.
type CourseRun struct {
	ID                    int64            `json:"id"`
	CourseID              int64            `json:"course_id"`
	Title                 string           `json:"title"`
	Status                RunStatus        `json:"status"`
	CourseStartDate       *time.Time       `json:"course_start_date,omitempty"`
	CourseEndDate         *time.Time       `json:"course_end_date,omitempty"`
	EnrollmentStartDate   *time.Time       `json:"enrollment_start_date,omitempty"`
	CourseUpgradeDeadline *time.Time       `json:"course_upgrade_deadline,omitempty"`
	HasPaid               bool             `json:"has_paid"`
	FinalGrade            *float64         `json:"final_grade,omitempty"`
	CurrentGrade          *float64         `json:"current_grade,omitempty"`
	Price                 *decimal.Decimal `json:"price,omitempty"`
}

// Course is a logical course offered across any number of runs. Runs are
// ordered most-relevant first; by convention the first element is the
// learner's current run.
type Course struct {
	ID                       int64        `json:"id"`
	ProgramID                int64        `json:"program_id"`
	Title                    string       `json:"title"`
	Runs                     []CourseRun  `json:"runs"`
	HasExam                  bool         `json:"has_exam"`
	CanScheduleExam          bool         `json:"can_schedule_exam"`
	ExamsSchedulableInFuture []time.Time  `json:"exams_schedulable_in_future,omitempty"`
	HasToPay                 bool         `json:"has_to_pay"`
	CertificateURL           string       `json:"certificate_url,omitempty"`
	ProctoredExamResults     []ExamResult `json:"proctorate_exams_grades,omitempty"`
}

// Program is a purchasable curriculum of courses.
type Program struct {
	ID                       int64    `json:"id"`
	Title                    string   `json:"title"`
	Courses                  []Course `json:"courses"`
	FinancialAidAvailability bool     `json:"financial_aid_availability"`
}
