package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/concert-booking/internal/logging"
	"github.com/iliyamo/concert-booking/internal/model"
	"github.com/iliyamo/concert-booking/internal/queue"
	"github.com/iliyamo/concert-booking/internal/repository"
)

// Notifier is told about every committed booking so it can re-check
// subscriptions on that concert date.
type Notifier interface {
	Update(ctx context.Context, concertID uint64, date time.Time)
}

// EventPublisher receives booking.created events after commit.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

// BookingRequest is the input of CreateBooking.
type BookingRequest struct {
	ConcertID  uint64
	Date       time.Time
	SeatLabels []string
}

// BookingService claims seats and records bookings.  Seat claims and the
// booking insert share one transaction: either every requested seat is
// booked and one booking exists, or nothing changed.
type BookingService struct {
	db       *sql.DB
	concerts *repository.ConcertRepo
	seats    *repository.SeatRepo
	bookings *repository.BookingRepo
	notifier Notifier
	events   EventPublisher // optional
	log      *logging.Logger
}

func NewBookingService(db *sql.DB, concerts *repository.ConcertRepo, seats *repository.SeatRepo, bookings *repository.BookingRepo, notifier Notifier, events EventPublisher, log *logging.Logger) *BookingService {
	if db == nil || concerts == nil || seats == nil || bookings == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if log == nil {
		log = logging.Nop()
	}
	return &BookingService{
		db:       db,
		concerts: concerts,
		seats:    seats,
		bookings: bookings,
		notifier: notifier,
		events:   events,
		log:      log.WithComponent("booking"),
	}
}

// CreateBooking books req.SeatLabels for userID.  Validation failures
// return before the transaction starts; a booked seat or a lost version
// race rolls back every write made so far.
func (s *BookingService) CreateBooking(ctx context.Context, userID uint64, req BookingRequest) (*model.Booking, error) {
	if len(req.SeatLabels) == 0 {
		return nil, ErrNoSeats
	}
	date := req.Date.UTC()

	ok, err := s.concerts.HasDate(ctx, req.ConcertID, date)
	if errors.Is(err, repository.ErrConcertNotFound) {
		return nil, ErrUnknownConcert
	}
	if err != nil {
		return nil, fmt.Errorf("check concert date: %w", err)
	}
	if !ok {
		return nil, ErrDateNotScheduled
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	seats, err := s.seats.FindByLabelsForUpdateTx(ctx, tx, date, req.SeatLabels)
	if err != nil {
		return nil, fmt.Errorf("lock seats: %w", err)
	}
	// duplicate labels also land here: IN returns each row once
	if len(seats) != len(req.SeatLabels) {
		return nil, ErrUnknownSeat
	}
	for _, seat := range seats {
		if seat.Booked {
			return nil, ErrSeatAlreadyBooked
		}
	}
	for i := range seats {
		if err := s.seats.ClaimTx(ctx, tx, seats[i]); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrSeatConflict
			}
			return nil, err
		}
		seats[i].Booked = true
		seats[i].Version++
	}

	b := &model.Booking{UserID: userID, ConcertID: req.ConcertID, Date: date, Seats: seats}
	if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	if err := s.bookings.CreateSeatsBulkTx(ctx, tx, b.ID, seats); err != nil {
		return nil, fmt.Errorf("insert booking seats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true

	s.log.Info().
		Uint64("booking_id", b.ID).
		Uint64("user_id", userID).
		Uint64("concert_id", b.ConcertID).
		Str("date", model.FormatDate(date)).
		Int("seats", len(seats)).
		Msg("booking created")

	s.afterCommit(context.WithoutCancel(ctx), b)
	return b, nil
}

// afterCommit runs the side effects of a booking.  Neither can fail the
// booking; errors are only logged.
func (s *BookingService) afterCommit(ctx context.Context, b *model.Booking) {
	if s.notifier != nil {
		s.notifier.Update(ctx, b.ConcertID, b.Date)
	}
	if s.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.events.PublishBookingCreated(pubCtx, queue.NewBookingCreatedEvent(*b)); err != nil {
		s.log.Warn().Err(err).Uint64("booking_id", b.ID).Msg("publish booking.created failed")
	}
}

// GetBooking returns one of the caller's bookings.
func (s *BookingService) GetBooking(ctx context.Context, userID, bookingID uint64) (*model.Booking, error) {
	b, err := s.bookings.GetForUser(ctx, bookingID, userID)
	switch {
	case errors.Is(err, repository.ErrBookingNotFound):
		return nil, ErrBookingNotFound
	case errors.Is(err, repository.ErrForbidden):
		return nil, ErrNotOwner
	case err != nil:
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return b, nil
}

// ListBookings returns every booking made by userID.
func (s *BookingService) ListBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
	list, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}
