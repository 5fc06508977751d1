package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/model"
)

// SeatLister lists seats for a date.
type SeatLister interface {
    ListByDate(ctx context.Context, date time.Time, status model.SeatStatus) ([]model.Seat, error)
}

// DateScheduler reports whether any concert plays on a date.
type DateScheduler interface {
    DateScheduled(ctx context.Context, date time.Time) (bool, error)
}

type SeatHandler struct {
    Seats    SeatLister
    Schedule DateScheduler
}

func NewSeatHandler(seats SeatLister, schedule DateScheduler) *SeatHandler {
    return &SeatHandler{Seats: seats, Schedule: schedule}
}

// ListSeats handles GET /seats/:date?status=Any|Booked|Unbooked.  A
// malformed date or status is a 400; a date with no concert is a 404.
func (h *SeatHandler) ListSeats(c echo.Context) error {
    date, err := model.ParseDate(c.Param("date"))
    if err != nil {
        return errorJSON(c, http.StatusBadRequest, err.Error())
    }
    status, err := model.ParseSeatStatus(c.QueryParam("status"))
    if err != nil {
        return errorJSON(c, http.StatusBadRequest, err.Error())
    }
    ctx := c.Request().Context()
    ok, err := h.Schedule.DateScheduled(ctx, date)
    if err != nil {
        return internalError(c, err)
    }
    if !ok {
        return errorJSON(c, http.StatusNotFound, "no concert is scheduled on that date")
    }
    seats, err := h.Seats.ListByDate(ctx, date, status)
    if err != nil {
        return internalError(c, err)
    }
    return c.JSON(http.StatusOK, toSeatViews(seats))
}
