package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/concert-booking/internal/model"
)

// SeatRepo reads and claims seats.  Seats are keyed by (label, date)
// and only ever change through ClaimTx.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

const seatColumns = `label, date, booked, price_cents, version`

// ListByDate returns the seats sold for date, optionally filtered by
// booked state.  Results are ordered by label.
func (r *SeatRepo) ListByDate(ctx context.Context, date time.Time, status model.SeatStatus) ([]model.Seat, error) {
	q := `SELECT ` + seatColumns + ` FROM seats WHERE date = ?`
	args := []interface{}{date}
	switch status {
	case model.SeatStatusBooked:
		q += ` AND booked = ?`
		args = append(args, true)
	case model.SeatStatusUnbooked:
		q += ` AND booked = ?`
		args = append(args, false)
	}
	q += ` ORDER BY label`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeats(rows)
}

// FindByLabelsForUpdateTx loads the named seats for date and locks the
// rows until tx ends.  Unknown labels are simply absent from the
// result; the caller compares counts.
func (r *SeatRepo) FindByLabelsForUpdateTx(ctx context.Context, tx *sql.Tx, date time.Time, labels []string) ([]model.Seat, error) {
	if len(labels) == 0 {
		return []model.Seat{}, nil
	}
	q := `SELECT ` + seatColumns + ` FROM seats
	      WHERE date = ? AND label IN (` + placeholders(len(labels)) + `)
	      ORDER BY label
	      FOR UPDATE`
	args := make([]interface{}, 0, len(labels)+1)
	args = append(args, date)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeats(rows)
}

// ClaimTx marks seat as booked if it is still unbooked at the version
// the caller read.  ErrConflict means someone else got there first.
func (r *SeatRepo) ClaimTx(ctx context.Context, tx *sql.Tx, seat model.Seat) error {
	const q = `UPDATE seats SET booked = TRUE, version = version + 1
	           WHERE label = ? AND date = ? AND version = ? AND booked = FALSE`
	res, err := tx.ExecContext(ctx, q, seat.Label, seat.Date, seat.Version)
	if err != nil {
		return fmt.Errorf("claim seat %s: %w", seat.Label, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// CountByDate returns the total number of seats on date and how many
// of them are still unbooked.
func (r *SeatRepo) CountByDate(ctx context.Context, date time.Time) (total, available int, err error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(CASE WHEN booked THEN 0 ELSE 1 END), 0)
	           FROM seats WHERE date = ?`
	err = r.db.QueryRowContext(ctx, q, date).Scan(&total, &available)
	return total, available, err
}

// CreateBulk inserts multiple seats in one statement.  Passing an empty
// slice has no effect.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (label, date, booked, price_cents, version) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.Label, s.Date, s.Booked, int64(s.Price), s.Version)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func scanSeats(rows *sql.Rows) ([]model.Seat, error) {
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		var price int64
		if err := rows.Scan(&s.Label, &s.Date, &s.Booked, &price, &s.Version); err != nil {
			return nil, err
		}
		s.Price = model.Cents(price)
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
