package model

import (
    "fmt"
    "strconv"
    "strings"
    "time"
)

// DateLayout is the wire format for concert dates: an ISO local
// date-time without zone.  All dates are interpreted as UTC.
const DateLayout = "2006-01-02T15:04:05"

// ParseDate parses a wire date.  A bare calendar date (2006-01-02)
// is accepted as midnight.
func ParseDate(s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
        return t, nil
    }
    t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
    if err != nil {
        return time.Time{}, fmt.Errorf("invalid date %q", s)
    }
    return t, nil
}

// FormatDate renders t in DateLayout after converting it to UTC.
func FormatDate(t time.Time) string {
    return t.UTC().Format(DateLayout)
}

// Seat is a row in the `seats` table.  A seat is identified by its
// label and the concert date it belongs to; the same label exists
// once per date.  Version increases on every successful claim and
// guards against two transactions claiming the same seat.
//
// Fields:
//  Label   – seat label, e.g. "C12".
//  Date    – concert date the seat is sold for.
//  Booked  – whether the seat has been claimed.
//  Price   – ticket price in cents.
//  Version – optimistic concurrency counter.
type Seat struct {
    Label   string    // seats.label
    Date    time.Time // seats.date
    Booked  bool      // seats.booked
    Price   Cents     // seats.price_cents
    Version uint64    // seats.version
}

// SeatStatus filters seat listings.
type SeatStatus string

const (
    SeatStatusAny      SeatStatus = "Any"
    SeatStatusBooked   SeatStatus = "Booked"
    SeatStatusUnbooked SeatStatus = "Unbooked"
)

// ParseSeatStatus accepts the three status names case-insensitively.
// An empty string means Any.
func ParseSeatStatus(s string) (SeatStatus, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "", "any":
        return SeatStatusAny, nil
    case "booked":
        return SeatStatusBooked, nil
    case "unbooked":
        return SeatStatusUnbooked, nil
    }
    return "", fmt.Errorf("invalid seat status %q", s)
}

// Cents is a money amount in the smallest currency unit.  It encodes
// to JSON as a decimal number with two fraction digits.
type Cents int64

func (c Cents) String() string {
    sign := ""
    v := int64(c)
    if v < 0 {
        sign = "-"
        v = -v
    }
    return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (c Cents) MarshalJSON() ([]byte, error) {
    return []byte(c.String()), nil
}

func (c *Cents) UnmarshalJSON(b []byte) error {
    s := strings.Trim(string(b), `"`)
    f, err := strconv.ParseFloat(s, 64)
    if err != nil {
        return fmt.Errorf("invalid price %q", s)
    }
    if f < 0 {
        *c = Cents(f*100 - 0.5)
    } else {
        *c = Cents(f*100 + 0.5)
    }
    return nil
}
