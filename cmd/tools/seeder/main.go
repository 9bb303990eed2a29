// Command seeder loads a small demo catalog into the database for local
// development: one program with three courses, runs across past and future
// terms, per-program pricing and a couple of redeemable coupons.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	if err := seed(ctx, pool); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}

func seed(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	statements := []struct {
		sql  string
		args []any
	}{
		{
			`INSERT INTO programs (id, title, financial_aid_availability)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title`,
			[]any{int64(1), "Supply Chain Management", true},
		},
		{
			`INSERT INTO course_prices (program_id, price)
			 VALUES ($1, $2)
			 ON CONFLICT (program_id) DO UPDATE SET price = EXCLUDED.price`,
			[]any{int64(1), "1000.00"},
		},
		{
			`INSERT INTO courses (id, program_id, title, position, has_exam)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			[]any{int64(10), int64(1), "Supply Chain Analytics", 1, true},
		},
		{
			`INSERT INTO courses (id, program_id, title, position, has_exam)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			[]any{int64(11), int64(1), "Supply Chain Fundamentals", 2, false},
		},
		{
			`INSERT INTO courses (id, program_id, title, position, has_exam)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			[]any{int64(12), int64(1), "Supply Chain Design", 3, false},
		},
		{
			`INSERT INTO course_runs (id, course_id, title, enrollment_start_date, course_start_date, course_end_date, upgrade_deadline)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO NOTHING`,
			[]any{int64(100), int64(10), "Analytics Spring Term", now.AddDate(0, -2, 0), now.AddDate(0, -1, 0), now.AddDate(0, 2, 0), now.AddDate(0, 0, 10)},
		},
		{
			`INSERT INTO course_runs (id, course_id, title, enrollment_start_date, course_start_date, course_end_date, upgrade_deadline)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO NOTHING`,
			[]any{int64(110), int64(11), "Fundamentals Fall Term", now.AddDate(0, 1, 0), now.AddDate(0, 2, 0), now.AddDate(0, 5, 0), now.AddDate(0, 3, 0)},
		},
		{
			`INSERT INTO course_runs (id, course_id, title, enrollment_start_date, course_start_date, course_end_date, upgrade_deadline)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO NOTHING`,
			[]any{int64(120), int64(12), "Design Summer Term", now.AddDate(0, -8, 0), now.AddDate(0, -7, 0), now.AddDate(0, -4, 0), nil},
		},
		{
			`INSERT INTO exam_windows (course_id, schedulable_from, schedulable_to)
			 VALUES ($1, $2, $3)`,
			[]any{int64(10), now.AddDate(0, 1, 0), now.AddDate(0, 2, 0)},
		},
		{
			`INSERT INTO financial_aid_tiers (program_id, income_threshold, discount_amount)
			 VALUES ($1, $2, $3)`,
			[]any{int64(1), "25000.00", "750.00"},
		},
		{
			`INSERT INTO financial_aid_tiers (program_id, income_threshold, discount_amount)
			 VALUES ($1, $2, $3)`,
			[]any{int64(1), "50000.00", "500.00"},
		},
		{
			`INSERT INTO coupons (id, code, content_type, amount_type, amount, program_id, object_id, enabled)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (code) DO NOTHING`,
			[]any{uuid.NewString(), "WELCOME25", "program", "percent-discount", "0.25", int64(1), int64(1), true},
		},
		{
			`INSERT INTO coupons (id, code, content_type, amount_type, amount, program_id, object_id, enabled)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (code) DO NOTHING`,
			[]any{uuid.NewString(), "ANALYTICS100", "course", "fixed-discount", "100.00", int64(1), int64(10), true},
		},
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt.sql, stmt.args...); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
