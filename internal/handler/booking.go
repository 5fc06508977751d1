package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/model"
    "github.com/iliyamo/concert-booking/internal/service"
)

// Booker is implemented by service.BookingService.
type Booker interface {
    CreateBooking(ctx context.Context, userID uint64, req service.BookingRequest) (*model.Booking, error)
    GetBooking(ctx context.Context, userID, bookingID uint64) (*model.Booking, error)
    ListBookings(ctx context.Context, userID uint64) ([]model.Booking, error)
}

// BookingHandler serves the authenticated booking endpoints.
type BookingHandler struct {
    Bookings Booker
}

func NewBookingHandler(b Booker) *BookingHandler {
    return &BookingHandler{Bookings: b}
}

type createBookingReq struct {
    ConcertID  uint64   `json:"concertId"`
    Date       string   `json:"date"`
    SeatLabels []string `json:"seatLabels"`
}

// Create handles POST /bookings.  On success the new booking's URI is
// returned in the Location header with an empty body.
func (h *BookingHandler) Create(c echo.Context) error {
    u, err := currentUser(c)
    if err != nil {
        return serviceError(c, err)
    }
    var req createBookingReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid body")
    }
    if req.ConcertID == 0 {
        return errorJSON(c, http.StatusBadRequest, "concertId required")
    }
    date, err := model.ParseDate(req.Date)
    if err != nil {
        return errorJSON(c, http.StatusBadRequest, err.Error())
    }
    labels := make([]string, 0, len(req.SeatLabels))
    for _, l := range req.SeatLabels {
        l = strings.TrimSpace(l)
        if l == "" {
            return errorJSON(c, http.StatusBadRequest, "seat labels must not be blank")
        }
        labels = append(labels, l)
    }

    b, err := h.Bookings.CreateBooking(c.Request().Context(), u.ID, service.BookingRequest{
        ConcertID:  req.ConcertID,
        Date:       date,
        SeatLabels: labels,
    })
    if err != nil {
        return serviceError(c, err)
    }
    loc := strings.TrimSuffix(c.Request().URL.Path, "/") + "/" + strconv.FormatUint(b.ID, 10)
    c.Response().Header().Set(echo.HeaderLocation, loc)
    return c.NoContent(http.StatusCreated)
}

// Get handles GET /bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
    u, err := currentUser(c)
    if err != nil {
        return serviceError(c, err)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid booking id")
    }
    b, err := h.Bookings.GetBooking(c.Request().Context(), u.ID, id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, toBookingView(*b))
}

// List handles GET /bookings.
func (h *BookingHandler) List(c echo.Context) error {
    u, err := currentUser(c)
    if err != nil {
        return serviceError(c, err)
    }
    list, err := h.Bookings.ListBookings(c.Request().Context(), u.ID)
    if err != nil {
        return serviceError(c, err)
    }
    out := make([]bookingView, 0, len(list))
    for _, b := range list {
        out = append(out, toBookingView(b))
    }
    return c.JSON(http.StatusOK, out)
}
