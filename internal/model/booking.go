package model

import "time"

// Booking records the seats a user bought for one concert date.
// Bookings are immutable once written.  Seats are stored in the
// `booking_seats` join table and loaded alongside the booking.
type Booking struct {
    ID        uint64    // bookings.id
    UserID    uint64    // bookings.user_id
    ConcertID uint64    // bookings.concert_id
    Date      time.Time // bookings.date
    CreatedAt time.Time // bookings.created_at
    Seats     []Seat
}

// Total is the sum of the seat prices.
func (b Booking) Total() Cents {
    var sum Cents
    for _, s := range b.Seats {
        sum += s.Price
    }
    return sum
}
