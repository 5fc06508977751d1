package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/model"
    "github.com/iliyamo/concert-booking/internal/notifier"
    "github.com/iliyamo/concert-booking/internal/repository"
)

// Subscriber is implemented by *notifier.Notifier.
type Subscriber interface {
    Subscribe(concertID uint64, date time.Time, threshold int) *notifier.Subscription
    Cancel(sub *notifier.Subscription) bool
}

// DateChecker reports whether a concert plays on a date.
type DateChecker interface {
    HasDate(ctx context.Context, concertID uint64, date time.Time) (bool, error)
}

// SubscriptionHandler parks a request until the concert date fills past
// the requested threshold.
type SubscriptionHandler struct {
    Notifier Subscriber
    Concerts DateChecker
    Timeout  time.Duration
}

func NewSubscriptionHandler(n Subscriber, concerts DateChecker, timeout time.Duration) *SubscriptionHandler {
    if timeout <= 0 {
        timeout = 10 * time.Minute
    }
    return &SubscriptionHandler{Notifier: n, Concerts: concerts, Timeout: timeout}
}

type subscribeReq struct {
    ConcertID        uint64 `json:"concertId"`
    Date             string `json:"date"`
    PercentageBooked *int   `json:"percentageBooked"`
}

type availabilityResp struct {
    AvailableSeats int `json:"availableSeats"`
}

// Subscribe handles POST /subscribe/concertInfo.  The response is
// written only when a booking pushes availability under the threshold,
// the timeout expires (408) or the server shuts down (503).
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
    if _, err := currentUser(c); err != nil {
        return serviceError(c, err)
    }
    var req subscribeReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid body")
    }
    if req.PercentageBooked == nil || *req.PercentageBooked < 0 || *req.PercentageBooked > 100 {
        return errorJSON(c, http.StatusBadRequest, "percentageBooked must be between 0 and 100")
    }
    date, err := model.ParseDate(req.Date)
    if err != nil {
        return errorJSON(c, http.StatusBadRequest, err.Error())
    }

    ctx := c.Request().Context()
    ok, err := h.Concerts.HasDate(ctx, req.ConcertID, date)
    if errors.Is(err, repository.ErrConcertNotFound) || (err == nil && !ok) {
        return errorJSON(c, http.StatusBadRequest, "no such concert on that date")
    }
    if err != nil {
        return internalError(c, err)
    }

    sub := h.Notifier.Subscribe(req.ConcertID, date, *req.PercentageBooked)
    timer := time.NewTimer(h.Timeout)
    defer timer.Stop()

    select {
    case n, open := <-sub.C:
        return h.deliver(c, n, open)
    case <-ctx.Done():
        // Client went away; nobody is left to answer.
        h.Notifier.Cancel(sub)
        return nil
    case <-timer.C:
        if h.Notifier.Cancel(sub) {
            return errorJSON(c, http.StatusRequestTimeout, "no update before timeout")
        }
        // Resolved or closed between the timer firing and Cancel.
        n, open := <-sub.C
        return h.deliver(c, n, open)
    }
}

func (h *SubscriptionHandler) deliver(c echo.Context, n notifier.Notification, open bool) error {
    if !open {
        return errorJSON(c, http.StatusServiceUnavailable, "server shutting down")
    }
    return c.JSON(http.StatusOK, availabilityResp{AvailableSeats: n.AvailableSeats})
}
