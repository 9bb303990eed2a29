package progress

import (
	"time"

	"github.com/micromasters/dashboard-api/internal/catalog"
	"github.com/micromasters/dashboard-api/internal/coupon"
)

// ActionType identifies the action a status message recommends. The caller
// decides what performing the action means.
type ActionType string

const (
	// ActionPay asks the learner to pay for the run.
	ActionPay ActionType = "pay"
	// ActionEnroll asks the learner to enroll in the run.
	ActionEnroll ActionType = "enroll"
	// ActionReenroll asks the learner to enroll in a later run of a course
	// they already took.
	ActionReenroll ActionType = "reenroll"
	// ActionCalculatePrice asks the learner to finish the financial aid
	// application so a personal price can be determined.
	ActionCalculatePrice ActionType = "calculate-price"
)

// dateFormat is the single human-readable format used for every date
// fragment the engine emits.
const dateFormat = "Jan 2, 2006"

// Action binds a recommended action type to the run it applies to.
type Action struct {
	Run  catalog.CourseRun `json:"run"`
	Type ActionType        `json:"type"`
}

// Link is a navigation fragment attached to a message, such as a
// certificate or support link.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// StatusMessage is one line of course status shown on the dashboard,
// optionally carrying a recommended action or a link.
type StatusMessage struct {
	Message string  `json:"message"`
	Action  *Action `json:"action,omitempty"`
	Link    *Link   `json:"link,omitempty"`
}

// Input carries everything the engine needs. Now is always supplied by the
// caller; the engine never reads the wall clock.
type Input struct {
	Course   catalog.Course
	FirstRun catalog.CourseRun
	Now      time.Time
	// ExpandedCourses holds ids of courses whose re-enroll details the
	// learner has expanded.
	ExpandedCourses map[int64]bool
	// Coupon is the program's active coupon, if any.
	Coupon *coupon.Coupon
	// FinancialAidPending substitutes a calculate-price action for pay
	// actions while the learner's aid application is unresolved.
	FinancialAidPending bool
	// SupportURL, when set, is linked from anomalous-state messages.
	SupportURL string
}

// rule is one guarded entry of the status decision table. Rules are
// evaluated in order and short-circuit on the first match; later rules
// assume earlier ones did not match, so the order is load-bearing.
type rule struct {
	matches func(Input) bool
	// emit builds the rule's messages. A nil emit means the course has
	// nothing to show (distinct from an empty message list).
	emit func(Input) []StatusMessage
	// banner marks rules whose output may be preceded by a course coupon
	// banner.
	banner bool
}

var courseRules = []rule{
	{matches: paidButNotEnrolled, emit: supportMessages},
	{matches: neverEnrollable, emit: noRunsMessages},
	{matches: paidAndInProgress, emit: nil},
	{matches: auditing, emit: auditMessages, banner: true},
	{matches: completedRun, emit: completedMessages, banner: true},
	{matches: failedCourse, emit: failedMessages, banner: true},
}

// CalculateMessages derives the dashboard status messages for a course. The
// boolean result distinguishes "render nothing" (false) from a present,
// possibly short, message list (true).
func CalculateMessages(in Input) ([]StatusMessage, bool) {
	for _, r := range courseRules {
		if !r.matches(in) {
			continue
		}
		if r.emit == nil {
			return nil, false
		}
		messages := r.emit(in)
		if r.banner {
			messages = prependCouponBanner(in, messages)
		}
		if len(messages) == 0 {
			return nil, false
		}
		return messages, true
	}
	// No rule matched; a matching coupon banner still shows on its own.
	if messages := prependCouponBanner(in, nil); len(messages) > 0 {
		return messages, true
	}
	return nil, false
}

func paidButNotEnrolled(in Input) bool {
	return in.FirstRun.Status == catalog.RunStatusPaidButNotEnrolled
}

func neverEnrollable(in Input) bool {
	return !in.FirstRun.IsEnrollable(in.Now) && !in.Course.HasEverEnrolled()
}

func paidAndInProgress(in Input) bool {
	return in.FirstRun.IsUpcomingOrCurrent(in.Now) && in.FirstRun.HasPaid
}

func auditing(in Input) bool {
	return in.FirstRun.IsUpcomingOrCurrent(in.Now) || in.FirstRun.Status == catalog.RunStatusCanUpgrade
}

func completedRun(in Input) bool {
	return in.FirstRun.Status == catalog.RunStatusPassed || in.FirstRun.Status == catalog.RunStatusMissedDeadline
}

func failedCourse(in Input) bool {
	return in.Course.HasFailedAnyRun() && !in.Course.HasPassedAnyRun()
}

func supportMessages(in Input) []StatusMessage {
	msg := StatusMessage{Message: "Something went wrong. You paid for this course but are not enrolled."}
	if in.SupportURL != "" {
		msg.Link = &Link{Text: "Contact us for help", URL: in.SupportURL}
	}
	return []StatusMessage{msg}
}

func noRunsMessages(Input) []StatusMessage {
	return []StatusMessage{{Message: "There are no future course runs scheduled."}}
}

func auditMessages(in Input) []StatusMessage {
	if in.Course.HasPaidForAnyRun() {
		return []StatusMessage{{Message: "You are auditing this course."}}
	}
	text := "You are auditing. To get credit, you need to pay for the course"
	if d := in.FirstRun.CourseUpgradeDeadline; d != nil {
		text += " (payment due on " + d.Format(dateFormat) + ")"
	}
	text += "."
	actionType := ActionPay
	if in.FinancialAidPending {
		actionType = ActionCalculatePrice
	}
	return []StatusMessage{{
		Message: text,
		Action:  &Action{Run: in.FirstRun, Type: actionType},
	}}
}

func completedMessages(in Input) []StatusMessage {
	if in.FirstRun.HasPaid {
		return paidCompleteMessages(in)
	}
	return unpaidCompleteMessages(in)
}

func paidCompleteMessages(in Input) []StatusMessage {
	if in.Course.HasExam && !in.Course.HasPassedExam() {
		messages := []StatusMessage{{Message: examMessage(in.Course)}}
		if _, ok := in.Course.FutureEnrollableRun(); ok {
			messages = append(messages, StatusMessage{Message: "You can re-enroll in a future course run."})
			messages = append(messages, reenrollDetailIfExpanded(in)...)
		}
		return messages
	}
	passed := StatusMessage{Message: "You passed this course."}
	if in.Course.CertificateURL != "" {
		passed.Link = &Link{Text: "View certificate", URL: in.Course.CertificateURL}
	}
	messages := []StatusMessage{passed}
	if _, ok := in.Course.FutureEnrollableRun(); ok {
		messages = append(messages, StatusMessage{Message: "You can re-enroll in a future course run."})
		messages = append(messages, reenrollDetailIfExpanded(in)...)
	}
	return messages
}

func unpaidCompleteMessages(in Input) []StatusMessage {
	if in.FirstRun.UpgradeDeadlinePassed(in.Now) {
		if _, ok := in.Course.FutureEnrollableRun(); !ok {
			return []StatusMessage{{Message: "You missed the payment deadline and there are no future course runs scheduled."}}
		}
		messages := []StatusMessage{{Message: "You missed the payment deadline, but you can re-enroll in a future course run."}}
		return append(messages, reenrollDetailIfExpanded(in)...)
	}

	text := "The edX course is complete, but you need to pay to get credit"
	if in.Course.HasExam {
		text = "The edX course is complete, but you need to pay and pass the exam to get credit"
	}
	if d := in.FirstRun.CourseUpgradeDeadline; d != nil {
		text += " (payment due on " + d.Format(dateFormat) + ")"
	}
	text += "."
	actionType := ActionPay
	if in.FinancialAidPending {
		actionType = ActionCalculatePrice
	}
	return []StatusMessage{{
		Message: text,
		Action:  &Action{Run: in.FirstRun, Type: actionType},
	}}
}

func failedMessages(in Input) []StatusMessage {
	if _, ok := in.Course.FutureEnrollableRun(); !ok {
		return []StatusMessage{{Message: "You did not pass the edX course."}}
	}
	messages := []StatusMessage{{Message: "You did not pass the edX course, but you can re-enroll."}}
	return append(messages, reenrollDetailIfExpanded(in)...)
}

// examMessage resolves the proctored-exam decision for a paid, completed
// course whose exam is still outstanding. Failed-and-must-pay takes
// precedence over scheduling availability.
func examMessage(c catalog.Course) string {
	next, hasNext := c.NextExamDate()
	switch {
	case c.HasFailedExam() && c.HasToPay:
		text := "You did not pass the exam. You need to pay again to retake it"
		if hasNext {
			text += ", starting " + next.Format(dateFormat)
		}
		return text + "."
	case c.CanScheduleExam:
		return "You can now schedule your proctored exam."
	case hasNext:
		return "There are no exams currently available. You will be able to schedule one starting " + next.Format(dateFormat) + "."
	default:
		return "The edX course is complete, but you must still pass the proctored exam. Check back later for available exam dates."
	}
}

// reenrollDetailIfExpanded reveals the next run's dates and a re-enroll
// action, but only once the learner expanded the course's status entry.
func reenrollDetailIfExpanded(in Input) []StatusMessage {
	future, ok := in.Course.FutureEnrollableRun()
	if !ok || !in.ExpandedCourses[in.Course.ID] {
		return nil
	}
	text := "Re-enroll in the next course run"
	if future.CourseStartDate != nil {
		text += ", starting " + future.CourseStartDate.Format(dateFormat)
	}
	if future.EnrollmentStartDate != nil && future.EnrollmentStartDate.After(in.Now) {
		text += " (enrollment opens " + future.EnrollmentStartDate.Format(dateFormat) + ")"
	}
	text += "."
	return []StatusMessage{{
		Message: text,
		Action:  &Action{Run: future, Type: ActionReenroll},
	}}
}

func prependCouponBanner(in Input, messages []StatusMessage) []StatusMessage {
	if in.Coupon == nil || !in.Coupon.MatchesCourse(in.Course.ID) {
		return messages
	}
	banner := StatusMessage{Message: "You will get " + in.Coupon.AmountText() + " for this course."}
	return append([]StatusMessage{banner}, messages...)
}
