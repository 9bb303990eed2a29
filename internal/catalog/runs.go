package catalog

import "time"

// enrolledStatuses are run statuses that imply the learner joined the run
// at some point, successfully or not.
var enrolledStatuses = map[RunStatus]bool{
	RunStatusCurrentlyEnrolled: true,
	RunStatusWillAttend:        true,
	RunStatusCanUpgrade:        true,
	RunStatusMissedDeadline:    true,
	RunStatusPassed:            true,
	RunStatusNotPassed:         true,
}

// startOfDay truncates a timestamp to day granularity in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsEnrollable reports whether the learner could enroll in the run right
// now. Enrollment-start comparison is at day granularity, so a run whose
// enrollment opens later today still counts.
func (r CourseRun) IsEnrollable(now time.Time) bool {
	if r.CourseID == 0 || r.EnrollmentStartDate == nil {
		return false
	}
	if startOfDay(*r.EnrollmentStartDate).After(startOfDay(now)) {
		return false
	}
	return r.Status == RunStatusOffered || r.Status == RunStatusPaidButNotEnrolled
}

// IsUpcomingOrCurrent reports whether the run has not finished yet: its end
// date is in the future, or the learner is currently enrolled.
func (r CourseRun) IsUpcomingOrCurrent(now time.Time) bool {
	if r.Status == RunStatusCurrentlyEnrolled {
		return true
	}
	return r.CourseEndDate != nil && r.CourseEndDate.After(now)
}

// UpgradeDeadlinePassed reports whether the payment deadline is behind us.
// A missing deadline never counts as passed.
func (r CourseRun) UpgradeDeadlinePassed(now time.Time) bool {
	if r.Status == RunStatusMissedDeadline {
		return true
	}
	return r.CourseUpgradeDeadline != nil && r.CourseUpgradeDeadline.Before(now)
}

// FirstRun returns the learner's most relevant run, the first element of the
// run list by convention. The second return value is false when the course
// has no runs.
func (c Course) FirstRun() (CourseRun, bool) {
	if len(c.Runs) == 0 {
		return CourseRun{}, false
	}
	return c.Runs[0], true
}

// FutureEnrollableRun returns the first run, in list order, still open to
// the learner.
func (c Course) FutureEnrollableRun() (CourseRun, bool) {
	for _, run := range c.Runs {
		if run.Status == RunStatusOffered || run.Status == RunStatusPaidButNotEnrolled {
			return run, true
		}
	}
	return CourseRun{}, false
}

// HasEverEnrolled reports whether any run carries an enrolled-type status.
func (c Course) HasEverEnrolled() bool {
	for _, run := range c.Runs {
		if enrolledStatuses[run.Status] {
			return true
		}
	}
	return false
}

// HasPaidForAnyRun reports whether the learner paid for any run of the course.
func (c Course) HasPaidForAnyRun() bool {
	for _, run := range c.Runs {
		if run.HasPaid {
			return true
		}
	}
	return false
}

// HasPassedAnyRun reports whether any run ended in a passing grade.
func (c Course) HasPassedAnyRun() bool {
	for _, run := range c.Runs {
		if run.Status == RunStatusPassed {
			return true
		}
	}
	return false
}

// HasFailedAnyRun reports whether any run ended in a failing grade.
func (c Course) HasFailedAnyRun() bool {
	for _, run := range c.Runs {
		if run.Status == RunStatusNotPassed {
			return true
		}
	}
	return false
}

// HasPassedExam reports whether any proctored exam attempt passed.
func (c Course) HasPassedExam() bool {
	for _, result := range c.ProctoredExamResults {
		if result.Passed {
			return true
		}
	}
	return false
}

// HasFailedExam reports whether the learner attempted the proctored exam
// without ever passing it.
func (c Course) HasFailedExam() bool {
	return len(c.ProctoredExamResults) > 0 && !c.HasPassedExam()
}

// NextExamDate returns the earliest future exam-availability date, if the
// course advertises any.
func (c Course) NextExamDate() (time.Time, bool) {
	var best time.Time
	found := false
	for _, d := range c.ExamsSchedulableInFuture {
		if !found || d.Before(best) {
			best = d
			found = true
		}
	}
	return best, found
}
