package pricing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DBTX is the subset of pgxpool.Pool the store needs.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store loads program base prices from Postgres.
type Store struct {
	db DBTX
}

// NewStore constructs a Store.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

const coursePricesQuery = `
SELECT cp.program_id, cp.price, p.financial_aid_availability
FROM course_prices cp
JOIN programs p ON p.id = cp.program_id
ORDER BY cp.program_id`

// CoursePrices returns the base price of every program.
func (s *Store) CoursePrices(ctx context.Context) ([]CoursePrice, error) {
	rows, err := s.db.Query(ctx, coursePricesQuery)
	if err != nil {
		return nil, fmt.Errorf("query course prices: %w", err)
	}
	defer rows.Close()

	var prices []CoursePrice
	for rows.Next() {
		var p CoursePrice
		if err := rows.Scan(&p.ProgramID, &p.Price, &p.FinancialAidAvailability); err != nil {
			return nil, fmt.Errorf("scan course price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
