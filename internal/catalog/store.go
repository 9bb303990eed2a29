package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// DBTX is the subset of pgxpool.Pool the store needs.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store loads the program catalog from Postgres. Learner state (enrollment
// status, payment, grades) is written by the edX sync job and overlaid here
// per user; an empty user ID yields the anonymous catalog.
type Store struct {
	db DBTX
}

// NewStore constructs a Store.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

const programsQuery = `
SELECT id, title, financial_aid_availability
FROM programs
ORDER BY id`

const coursesQuery = `
SELECT c.id, c.program_id, c.title, c.has_exam,
       COALESCE(cert.url, '') AS certificate_url,
       (SELECT count(*) FROM enrollments e
          JOIN course_runs r ON r.id = e.run_id
         WHERE r.course_id = c.id AND e.user_id = $1 AND e.has_paid) AS paid_runs
FROM courses c
LEFT JOIN certificates cert ON cert.course_id = c.id AND cert.user_id = $1
ORDER BY c.program_id, c.position, c.id`

const runsQuery = `
SELECT r.id, r.course_id, r.title,
       r.enrollment_start_date, r.course_start_date, r.course_end_date,
       r.upgrade_deadline,
       COALESCE(e.status, 'offered') AS status,
       COALESCE(e.has_paid, false) AS has_paid,
       e.final_grade, e.current_grade
FROM course_runs r
LEFT JOIN enrollments e ON e.run_id = r.id AND e.user_id = $1
ORDER BY r.course_id,
         CASE WHEN e.user_id IS NOT NULL THEN 0 ELSE 1 END,
         r.course_start_date DESC NULLS LAST,
         r.id`

const examResultsQuery = `
SELECT course_id, percentage_grade, passed, exam_date
FROM exam_results
WHERE user_id = $1
ORDER BY course_id, exam_date`

const examWindowsQuery = `
SELECT course_id, schedulable_from, schedulable_to
FROM exam_windows
ORDER BY course_id, schedulable_from`

// Programs loads the full catalog with the given learner's state overlaid.
// now drives exam window classification.
func (s *Store) Programs(ctx context.Context, userID string, now time.Time) ([]Program, error) {
	programs, err := s.loadPrograms(ctx)
	if err != nil {
		return nil, err
	}
	courses, paidRuns, err := s.loadCourses(ctx, userID)
	if err != nil {
		return nil, err
	}
	runsByCourse, err := s.loadRuns(ctx, userID)
	if err != nil {
		return nil, err
	}
	examsByCourse, err := s.loadExamResults(ctx, userID)
	if err != nil {
		return nil, err
	}
	windowsByCourse, err := s.loadExamWindows(ctx)
	if err != nil {
		return nil, err
	}

	coursesByProgram := make(map[int64][]Course)
	for _, course := range courses {
		course.Runs = runsByCourse[course.ID]
		course.ProctoredExamResults = examsByCourse[course.ID]
		if course.HasExam {
			course.HasToPay = len(course.ProctoredExamResults) >= paidRuns[course.ID]
			for _, window := range windowsByCourse[course.ID] {
				if !window.From.After(now) && !window.To.Before(now) {
					course.CanScheduleExam = true
				}
				if window.From.After(now) {
					course.ExamsSchedulableInFuture = append(course.ExamsSchedulableInFuture, window.From)
				}
			}
		}
		coursesByProgram[course.ProgramID] = append(coursesByProgram[course.ProgramID], course)
	}

	for i := range programs {
		programs[i].Courses = coursesByProgram[programs[i].ID]
	}
	return programs, nil
}

func (s *Store) loadPrograms(ctx context.Context) ([]Program, error) {
	rows, err := s.db.Query(ctx, programsQuery)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	var programs []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.Title, &p.FinancialAidAvailability); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

func (s *Store) loadCourses(ctx context.Context, userID string) ([]Course, map[int64]int, error) {
	rows, err := s.db.Query(ctx, coursesQuery, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	paidRuns := make(map[int64]int)
	for rows.Next() {
		var c Course
		var paid int
		if err := rows.Scan(&c.ID, &c.ProgramID, &c.Title, &c.HasExam, &c.CertificateURL, &paid); err != nil {
			return nil, nil, fmt.Errorf("scan course: %w", err)
		}
		paidRuns[c.ID] = paid
		courses = append(courses, c)
	}
	return courses, paidRuns, rows.Err()
}

func (s *Store) loadRuns(ctx context.Context, userID string) (map[int64][]CourseRun, error) {
	rows, err := s.db.Query(ctx, runsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query course runs: %w", err)
	}
	defer rows.Close()

	byCourse := make(map[int64][]CourseRun)
	for rows.Next() {
		var run CourseRun
		if err := rows.Scan(
			&run.ID, &run.CourseID, &run.Title,
			&run.EnrollmentStartDate, &run.CourseStartDate, &run.CourseEndDate,
			&run.CourseUpgradeDeadline,
			&run.Status, &run.HasPaid,
			&run.FinalGrade, &run.CurrentGrade,
		); err != nil {
			return nil, fmt.Errorf("scan course run: %w", err)
		}
		byCourse[run.CourseID] = append(byCourse[run.CourseID], run)
	}
	return byCourse, rows.Err()
}

func (s *Store) loadExamResults(ctx context.Context, userID string) (map[int64][]ExamResult, error) {
	rows, err := s.db.Query(ctx, examResultsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query exam results: %w", err)
	}
	defer rows.Close()

	byCourse := make(map[int64][]ExamResult)
	for rows.Next() {
		var courseID int64
		var result ExamResult
		if err := rows.Scan(&courseID, &result.PercentageGrade, &result.Passed, &result.ExamDate); err != nil {
			return nil, fmt.Errorf("scan exam result: %w", err)
		}
		byCourse[courseID] = append(byCourse[courseID], result)
	}
	return byCourse, rows.Err()
}

type examWindow struct {
	From time.Time
	To   time.Time
}

func (s *Store) loadExamWindows(ctx context.Context) (map[int64][]examWindow, error) {
	rows, err := s.db.Query(ctx, examWindowsQuery)
	if err != nil {
		return nil, fmt.Errorf("query exam windows: %w", err)
	}
	defer rows.Close()

	byCourse := make(map[int64][]examWindow)
	for rows.Next() {
		var courseID int64
		var window examWindow
		if err := rows.Scan(&courseID, &window.From, &window.To); err != nil {
			return nil, fmt.Errorf("scan exam window: %w", err)
		}
		byCourse[courseID] = append(byCourse[courseID], window)
	}
	return byCourse, rows.Err()
}
