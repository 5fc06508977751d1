package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-booking/internal/model"
	"github.com/iliyamo/concert-booking/internal/queue"
	"github.com/iliyamo/concert-booking/internal/repository"
)

var concertDate = time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

type update struct {
	concertID uint64
	date      time.Time
}

type recordingNotifier struct {
	mu      sync.Mutex
	updates []update
}

func (r *recordingNotifier) Update(_ context.Context, concertID uint64, date time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update{concertID, date})
}

type recordingPublisher struct {
	events []queue.BookingCreatedEvent
	err    error
}

func (r *recordingPublisher) PublishBookingCreated(_ context.Context, ev queue.BookingCreatedEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

type bookingFixture struct {
	svc       *BookingService
	mock      sqlmock.Sqlmock
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &bookingFixture{mock: mock, notifier: &recordingNotifier{}, publisher: &recordingPublisher{}}
	f.svc = NewBookingService(db,
		repository.NewConcertRepo(db),
		repository.NewSeatRepo(db),
		repository.NewBookingRepo(db),
		f.notifier, f.publisher, nil)
	return f
}

func (f *bookingFixture) expectHasDate(ok bool) {
	f.mock.ExpectQuery(`FROM concerts c LEFT JOIN concert_dates cd`).
		WithArgs(concertDate, uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "has_date"}).AddRow(1, ok))
}

func (f *bookingFixture) expectLock(rows ...[]driver.Value) {
	r := sqlmock.NewRows([]string{"label", "date", "booked", "price_cents", "version"})
	for _, row := range rows {
		r.AddRow(row...)
	}
	f.mock.ExpectQuery(`FROM seats WHERE date = \? AND label IN .* FOR UPDATE`).WillReturnRows(r)
}

func seatRow(label string, booked bool, version int) []driver.Value {
	return []driver.Value{label, concertDate, booked, int64(1000), uint64(version)}
}

func bookingReq(labels ...string) BookingRequest {
	return BookingRequest{ConcertID: 1, Date: concertDate, SeatLabels: labels}
}

func TestCreateBookingSuccess(t *testing.T) {
	f := newBookingFixture(t)
	f.expectHasDate(true)
	f.mock.ExpectBegin()
	f.expectLock(seatRow("A1", false, 0), seatRow("A2", false, 2))
	f.mock.ExpectExec(`UPDATE seats SET booked = TRUE`).WithArgs("A1", concertDate, uint64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`UPDATE seats SET booked = TRUE`).WithArgs("A2", concertDate, uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO bookings`).WithArgs(uint64(7), uint64(1), concertDate).
		WillReturnResult(sqlmock.NewResult(55, 1))
	f.mock.ExpectExec(`INSERT INTO booking_seats`).
		WithArgs(uint64(55), "A1", concertDate, uint64(55), "A2", concertDate).
		WillReturnResult(sqlmock.NewResult(0, 2))
	f.mock.ExpectCommit()

	b, err := f.svc.CreateBooking(context.Background(), 7, bookingReq("A1", "A2"))
	require.NoError(t, err)
	assert.Equal(t, uint64(55), b.ID)
	require.Len(t, b.Seats, 2)
	for _, s := range b.Seats {
		assert.True(t, s.Booked)
	}
	assert.Equal(t, uint64(3), b.Seats[1].Version)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	assert.Equal(t, []update{{1, concertDate}}, f.notifier.updates)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, uint64(55), f.publisher.events[0].BookingID)
	assert.Equal(t, []string{"A1", "A2"}, f.publisher.events[0].SeatLabels)
}

func TestCreateBookingPublishFailureDoesNotFail(t *testing.T) {
	f := newBookingFixture(t)
	f.publisher.err = errors.New("broker down")
	f.expectHasDate(true)
	f.mock.ExpectBegin()
	f.expectLock(seatRow("A1", false, 0))
	f.mock.ExpectExec(`UPDATE seats`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec(`INSERT INTO booking_seats`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	_, err := f.svc.CreateBooking(context.Background(), 7, bookingReq("A1"))
	require.NoError(t, err)
	assert.Len(t, f.notifier.updates, 1)
}

func TestCreateBookingRejectsBeforeTransaction(t *testing.T) {
	t.Run("no seats", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.CreateBooking(context.Background(), 7, bookingReq())
		assert.ErrorIs(t, err, ErrBadRequest)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("date not scheduled", func(t *testing.T) {
		f := newBookingFixture(t)
		f.expectHasDate(false)
		_, err := f.svc.CreateBooking(context.Background(), 7, bookingReq("A1"))
		assert.ErrorIs(t, err, ErrDateNotScheduled)
		assert.ErrorIs(t, err, ErrBadRequest)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("unknown concert", func(t *testing.T) {
		f := newBookingFixture(t)
		f.mock.ExpectQuery(`FROM concerts c LEFT JOIN concert_dates cd`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "has_date"}))
		_, err := f.svc.CreateBooking(context.Background(), 7, bookingReq("A1"))
		assert.ErrorIs(t, err, ErrUnknownConcert)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestCreateBookingRollsBack(t *testing.T) {
	cases := []struct {
		name   string
		labels []string
		setup  func(f *bookingFixture)
		want   error
		class  error
	}{
		{
			name:   "unknown seat label",
			labels: []string{"A1", "Z99"},
			setup: func(f *bookingFixture) {
				f.expectLock(seatRow("A1", false, 0))
			},
			want:  ErrUnknownSeat,
			class: ErrBadRequest,
		},
		{
			name:   "duplicate label",
			labels: []string{"A1", "A1"},
			setup: func(f *bookingFixture) {
				f.expectLock(seatRow("A1", false, 0))
			},
			want:  ErrUnknownSeat,
			class: ErrBadRequest,
		},
		{
			name:   "seat already booked",
			labels: []string{"A1", "A2"},
			setup: func(f *bookingFixture) {
				f.expectLock(seatRow("A1", false, 0), seatRow("A2", true, 1))
			},
			want:  ErrSeatAlreadyBooked,
			class: ErrForbidden,
		},
		{
			name:   "lost version race",
			labels: []string{"A1", "A2"},
			setup: func(f *bookingFixture) {
				f.expectLock(seatRow("A1", false, 0), seatRow("A2", false, 0))
				f.mock.ExpectExec(`UPDATE seats`).WithArgs("A1", concertDate, uint64(0)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				f.mock.ExpectExec(`UPDATE seats`).WithArgs("A2", concertDate, uint64(0)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			want:  ErrSeatConflict,
			class: ErrForbidden,
		},
		{
			name:   "ledger insert fails",
			labels: []string{"A1"},
			setup: func(f *bookingFixture) {
				f.expectLock(seatRow("A1", false, 0))
				f.mock.ExpectExec(`UPDATE seats`).WillReturnResult(sqlmock.NewResult(0, 1))
				f.mock.ExpectExec(`INSERT INTO bookings`).WillReturnError(sql.ErrConnDone)
			},
			want: sql.ErrConnDone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture(t)
			f.expectHasDate(true)
			f.mock.ExpectBegin()
			tc.setup(f)
			f.mock.ExpectRollback()

			_, err := f.svc.CreateBooking(context.Background(), 7, BookingRequest{ConcertID: 1, Date: concertDate, SeatLabels: tc.labels})
			assert.ErrorIs(t, err, tc.want)
			if tc.class != nil {
				assert.ErrorIs(t, err, tc.class)
			}
			assert.NoError(t, f.mock.ExpectationsWereMet())
			assert.Empty(t, f.notifier.updates)
			assert.Empty(t, f.publisher.events)
		})
	}
}

// Two users want A1 on the same date.  The second transaction only sees
// the row after the first commits, so it reads booked=true.
func TestSecondBookingOfSameSeatIsForbidden(t *testing.T) {
	f := newBookingFixture(t)

	f.expectHasDate(true)
	f.mock.ExpectBegin()
	f.expectLock(seatRow("A1", false, 0))
	f.mock.ExpectExec(`UPDATE seats`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec(`INSERT INTO booking_seats`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	f.expectHasDate(true)
	f.mock.ExpectBegin()
	f.expectLock(seatRow("A1", true, 1))
	f.mock.ExpectRollback()

	_, err := f.svc.CreateBooking(context.Background(), 1, bookingReq("A1"))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(context.Background(), 2, bookingReq("A1"))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Len(t, f.notifier.updates, 1)
}

func TestGetBooking(t *testing.T) {
	cols := []string{"id", "user_id", "concert_id", "date", "created_at"}

	t.Run("owner sees booking", func(t *testing.T) {
		f := newBookingFixture(t)
		f.mock.ExpectQuery(`FROM bookings WHERE id = \?`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(5, 7, 1, concertDate, concertDate))
		f.mock.ExpectQuery(`FROM booking_seats`).
			WillReturnRows(sqlmock.NewRows([]string{"booking_id", "label", "date", "booked", "price_cents", "version"}).
				AddRow(5, "A1", concertDate, true, 1000, 1))

		b, err := f.svc.GetBooking(context.Background(), 7, 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), b.ID)
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		f := newBookingFixture(t)
		f.mock.ExpectQuery(`FROM bookings WHERE id = \?`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(5, 7, 1, concertDate, concertDate))

		_, err := f.svc.GetBooking(context.Background(), 8, 5)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing", func(t *testing.T) {
		f := newBookingFixture(t)
		f.mock.ExpectQuery(`FROM bookings WHERE id = \?`).WillReturnRows(sqlmock.NewRows(cols))

		_, err := f.svc.GetBooking(context.Background(), 7, 5)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListBookingsOnlyQueriesCaller(t *testing.T) {
	f := newBookingFixture(t)
	f.mock.ExpectQuery(`FROM bookings WHERE user_id = \?`).WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "concert_id", "date", "created_at"}))

	list, err := f.svc.ListBookings(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []model.Booking{}, list)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
