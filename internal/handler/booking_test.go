package handler

import (
    "context"
    "net/http"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/concert-booking/internal/model"
    "github.com/iliyamo/concert-booking/internal/service"
)

type stubBooker struct {
    req       service.BookingRequest
    userID    uint64
    createErr error
    booking   *model.Booking
    getErr    error
    list      []model.Booking
}

func (s *stubBooker) CreateBooking(_ context.Context, userID uint64, req service.BookingRequest) (*model.Booking, error) {
    s.userID, s.req = userID, req
    if s.createErr != nil {
        return nil, s.createErr
    }
    return &model.Booking{ID: 42, UserID: userID, ConcertID: req.ConcertID, Date: req.Date}, nil
}

func (s *stubBooker) GetBooking(_ context.Context, userID, bookingID uint64) (*model.Booking, error) {
    s.userID = userID
    if s.getErr != nil {
        return nil, s.getErr
    }
    return s.booking, nil
}

func (s *stubBooker) ListBookings(_ context.Context, userID uint64) ([]model.Booking, error) {
    s.userID = userID
    return s.list, nil
}

func bookingEcho(b *stubBooker) *echo.Echo {
    e := echo.New()
    h := NewBookingHandler(b)
    mw := sessionAuth()
    e.POST("/concert-service/bookings", h.Create, mw)
    e.GET("/concert-service/bookings", h.List, mw)
    e.GET("/concert-service/bookings/:id", h.Get, mw)
    return e
}

const bookingBody = `{"concertId":1,"date":"2024-01-01T20:00:00","seatLabels":["A1"," B2 "]}`

func TestCreateBooking(t *testing.T) {
    b := &stubBooker{}
    e := bookingEcho(b)

    rec := do(e, http.MethodPost, "/concert-service/bookings", bookingBody, "good")
    require.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, "/concert-service/bookings/42", rec.Header().Get(echo.HeaderLocation))
    assert.Equal(t, uint64(7), b.userID)
    assert.Equal(t, uint64(1), b.req.ConcertID)
    assert.True(t, concertDate.Equal(b.req.Date))
    assert.Equal(t, []string{"A1", "B2"}, b.req.SeatLabels)
}

func TestCreateBookingErrors(t *testing.T) {
    cases := []struct {
        name  string
        body  string
        token string
        err   error
        want  int
    }{
        {"no token", bookingBody, "", nil, http.StatusUnauthorized},
        {"bad token", bookingBody, "stale", nil, http.StatusUnauthorized},
        {"bad date", `{"concertId":1,"date":"soon","seatLabels":["A1"]}`, "good", nil, http.StatusBadRequest},
        {"missing concert", `{"date":"2024-01-01T20:00:00","seatLabels":["A1"]}`, "good", nil, http.StatusBadRequest},
        {"malformed", `{"concertId":`, "good", nil, http.StatusBadRequest},
        {"blank label", `{"concertId":1,"date":"2024-01-01T20:00:00","seatLabels":["A1",""]}`, "good", nil, http.StatusBadRequest},
        {"whitespace label", `{"concertId":1,"date":"2024-01-01T20:00:00","seatLabels":["A1","  "]}`, "good", nil, http.StatusBadRequest},
        {"unknown seat", bookingBody, "good", service.ErrUnknownSeat, http.StatusBadRequest},
        {"seat booked", bookingBody, "good", service.ErrSeatAlreadyBooked, http.StatusForbidden},
        {"lost race", bookingBody, "good", service.ErrSeatConflict, http.StatusForbidden},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            b := &stubBooker{createErr: tc.err}
            e := bookingEcho(b)
            rec := do(e, http.MethodPost, "/concert-service/bookings", tc.body, tc.token)
            assert.Equal(t, tc.want, rec.Code)
            assert.Contains(t, rec.Body.String(), `"error"`)
            if tc.err == nil {
                assert.Nil(t, b.req.SeatLabels, "service must not be called")
            }
        })
    }
}

func TestGetBooking(t *testing.T) {
    b := &stubBooker{booking: &model.Booking{
        ID: 42, UserID: 7, ConcertID: 1, Date: concertDate,
        Seats: []model.Seat{{Label: "A1", Price: 1000}},
    }}
    e := bookingEcho(b)

    rec := do(e, http.MethodGet, "/concert-service/bookings/42", "", "good")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"id":42,"concertId":1,"date":"2024-01-01T20:00:00","seats":[{"label":"A1","price":10.00}]}`, rec.Body.String())

    b.getErr = service.ErrNotOwner
    assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/concert-service/bookings/42", "", "good").Code)
    b.getErr = service.ErrBookingNotFound
    assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/concert-service/bookings/42", "", "good").Code)
    assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/concert-service/bookings/x", "", "good").Code)
}

func TestListBookings(t *testing.T) {
    b := &stubBooker{}
    e := bookingEcho(b)

    rec := do(e, http.MethodGet, "/concert-service/bookings", "", "good")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `[]`, rec.Body.String())
    assert.Equal(t, uint64(7), b.userID)

    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/concert-service/bookings", "", "").Code)
}
