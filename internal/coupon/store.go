package coupon

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound signals that no coupon matches the given code.
var ErrNotFound = errors.New("coupon: not found")

// ErrAlreadyAttached signals that the learner already holds the coupon.
var ErrAlreadyAttached = errors.New("coupon: already attached")

// DBTX is the subset of pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists coupons and learner attachments.
type Store struct {
	db DBTX
}

// NewStore constructs a Store.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

const couponColumns = `id, code, content_type, amount_type, amount, program_id, object_id,
       enabled, activation_date, expiration_date`

const getByCodeQuery = `
SELECT ` + couponColumns + `
FROM coupons
WHERE code = $1`

const listForUserQuery = `
SELECT ` + couponColumns + `
FROM coupons c
JOIN user_coupons uc ON uc.coupon_id = c.id
WHERE uc.user_id = $1
ORDER BY uc.attached_at DESC`

const attachQuery = `
INSERT INTO user_coupons (user_id, coupon_id, attached_at)
VALUES ($1, $2, now())`

// GetByCode returns the coupon for the given code.
func (s *Store) GetByCode(ctx context.Context, code string) (Coupon, error) {
	row := s.db.QueryRow(ctx, getByCodeQuery, code)
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, fmt.Errorf("get coupon by code: %w", err)
	}
	return c, nil
}

// ListForUser returns coupons attached to the learner, most recent first.
func (s *Store) ListForUser(ctx context.Context, userID uuid.UUID) ([]Coupon, error) {
	rows, err := s.db.Query(ctx, listForUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list user coupons: %w", err)
	}
	defer rows.Close()

	var coupons []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

// Attach records the learner holding the coupon. Re-attaching the same
// coupon yields ErrAlreadyAttached.
func (s *Store) Attach(ctx context.Context, userID, couponID uuid.UUID) error {
	_, err := s.db.Exec(ctx, attachQuery, userID, couponID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyAttached
		}
		return fmt.Errorf("attach coupon: %w", err)
	}
	return nil
}

func scanCoupon(row pgx.Row) (Coupon, error) {
	var c Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.ContentType, &c.AmountType, &c.Amount,
		&c.ProgramID, &c.ObjectID,
		&c.Enabled, &c.ActivationDate, &c.ExpirationDate,
	)
	return c, err
}
