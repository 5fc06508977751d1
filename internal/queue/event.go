// Package queue carries booking events over RabbitMQ: the payload type, a
// publisher used by the booking service and a consumer that appends each
// event to a log file.
package queue

import (
    "time"

    "github.com/iliyamo/concert-booking/internal/model"
)

// BookingCreatedQueue is the durable queue events are routed to.
const BookingCreatedQueue = "booking.created"

// BookingCreatedEvent is published when a booking commits.  It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type BookingCreatedEvent struct {
    BookingID  uint64   `json:"booking_id"`
    UserID     uint64   `json:"user_id"`
    ConcertID  uint64   `json:"concert_id"`
    Date       string   `json:"date"`
    SeatLabels []string `json:"seats"`
    TotalCents int64    `json:"total_cents"`
    CreatedAt  string   `json:"created_at"`
}

// NewBookingCreatedEvent builds the event for a committed booking.
func NewBookingCreatedEvent(b model.Booking) BookingCreatedEvent {
    labels := make([]string, 0, len(b.Seats))
    for _, s := range b.Seats {
        labels = append(labels, s.Label)
    }
    created := b.CreatedAt
    if created.IsZero() {
        created = time.Now()
    }
    return BookingCreatedEvent{
        BookingID:  b.ID,
        UserID:     b.UserID,
        ConcertID:  b.ConcertID,
        Date:       model.FormatDate(b.Date),
        SeatLabels: labels,
        TotalCents: int64(b.Total()),
        CreatedAt:  created.UTC().Format(time.RFC3339),
    }
}
