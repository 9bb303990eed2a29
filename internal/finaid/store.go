package finaid

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DBTX is the subset of pgxpool.Pool the store needs.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store loads financial aid state from Postgres.
type Store struct {
	db DBTX
}

// NewStore constructs a Store.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

const applicationQuery = `
SELECT status, date_documents_sent
FROM financial_aid_applications
WHERE user_id = $1 AND program_id = $2
ORDER BY created_at DESC
LIMIT 1`

const costRangeQuery = `
SELECT cp.price - COALESCE(max(t.discount_amount), 0) AS min_cost,
       cp.price AS max_cost
FROM course_prices cp
LEFT JOIN financial_aid_tiers t ON t.program_id = cp.program_id
WHERE cp.program_id = $1
GROUP BY cp.price`

// StateFor returns the learner's financial aid standing for a program.
// Learners who never applied get the program's possible cost range with
// HasUserApplied false.
func (s *Store) StateFor(ctx context.Context, userID uuid.UUID, programID int64) (State, error) {
	state := State{ProgramID: programID}

	err := s.db.QueryRow(ctx, costRangeQuery, programID).
		Scan(&state.MinPossibleCost, &state.MaxPossibleCost)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return State{}, fmt.Errorf("query cost range: %w", err)
	}

	err = s.db.QueryRow(ctx, applicationQuery, userID, programID).
		Scan(&state.ApplicationStatus, &state.DateDocumentsSent)
	if errors.Is(err, pgx.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("query financial aid application: %w", err)
	}
	state.HasUserApplied = true
	return state, nil
}
