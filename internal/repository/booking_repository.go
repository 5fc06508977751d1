package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/concert-booking/internal/model"
)

// BookingRepo writes and reads bookings and their seats.  Seats booked
// under a booking are stored in the booking_seats table; prices are
// read back from seats so a booking always shows what was paid.  All
// timestamps are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts the booking row within the scope of an existing
// transaction and populates b.ID from the generated key.  The caller
// must commit or rollback the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, concert_id, date) VALUES (?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, b.UserID, b.ConcertID, b.Date.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}

// CreateSeatsBulkTx inserts one booking_seats row per seat in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, bookingID uint64, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, label, date) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, bookingID, s.Label, s.Date.UTC())
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetForUser returns a booking with its seats.  It returns
// ErrBookingNotFound when the booking does not exist and ErrForbidden
// when it belongs to a different user.
func (r *BookingRepo) GetForUser(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, concert_id, date, created_at FROM bookings WHERE id = ?`
	var b model.Booking
	err := r.db.QueryRowContext(ctx, q, bookingID).
		Scan(&b.ID, &b.UserID, &b.ConcertID, &b.Date, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}

	list := []model.Booking{b}
	if err := r.loadSeats(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListByUser returns all bookings owned by userID, newest first, with
// seats populated.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT id, user_id, concert_id, date, created_at
	           FROM bookings WHERE user_id = ?
	           ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ConcertID, &b.Date, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}
	if err := r.loadSeats(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// loadSeats fetches the seats of every booking in one query and attaches
// them in label order.
func (r *BookingRepo) loadSeats(ctx context.Context, bookings []model.Booking) error {
	index := make(map[uint64]int, len(bookings))
	ids := make([]interface{}, 0, len(bookings))
	for i, b := range bookings {
		index[b.ID] = i
		ids = append(ids, b.ID)
		bookings[i].Seats = make([]model.Seat, 0)
	}
	seatQuery := `SELECT bs.booking_id, s.label, s.date, s.booked, s.price_cents, s.version
	              FROM booking_seats bs
	              JOIN seats s ON s.label = bs.label AND s.date = bs.date
	              WHERE bs.booking_id IN (` + placeholders(len(ids)) + `)
	              ORDER BY bs.booking_id, s.label`
	rows, err := r.db.QueryContext(ctx, seatQuery, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bid uint64
		var s model.Seat
		var price int64
		if err := rows.Scan(&bid, &s.Label, &s.Date, &s.Booked, &price, &s.Version); err != nil {
			return err
		}
		s.Price = model.Cents(price)
		idx, ok := index[bid]
		if !ok {
			continue
		}
		bookings[idx].Seats = append(bookings[idx].Seats, s)
	}
	return rows.Err()
}
