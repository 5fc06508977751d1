package model

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
    d, err := ParseDate("2024-01-01T20:00:00")
    require.NoError(t, err)
    assert.Equal(t, time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), d)

    d, err = ParseDate("2024-01-01")
    require.NoError(t, err)
    assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), d)

    _, err = ParseDate("01/01/2024")
    assert.Error(t, err)
}

func TestFormatDateConvertsToUTC(t *testing.T) {
    nz := time.FixedZone("NZDT", 13*3600)
    d := time.Date(2024, 1, 2, 9, 0, 0, 0, nz)
    assert.Equal(t, "2024-01-01T20:00:00", FormatDate(d))
}

func TestParseSeatStatus(t *testing.T) {
    cases := map[string]SeatStatus{
        "":         SeatStatusAny,
        "Any":      SeatStatusAny,
        "booked":   SeatStatusBooked,
        "UNBOOKED": SeatStatusUnbooked,
    }
    for in, want := range cases {
        got, err := ParseSeatStatus(in)
        require.NoError(t, err, in)
        assert.Equal(t, want, got, in)
    }
    _, err := ParseSeatStatus("reserved")
    assert.Error(t, err)
}

func TestCentsJSON(t *testing.T) {
    b, err := json.Marshal(struct {
        Price Cents `json:"price"`
    }{Price: 1000})
    require.NoError(t, err)
    assert.JSONEq(t, `{"price": 10.00}`, string(b))
    assert.Equal(t, `{"price":10.00}`, string(b))

    var in struct {
        Price Cents `json:"price"`
    }
    require.NoError(t, json.Unmarshal([]byte(`{"price": 129.99}`), &in))
    assert.Equal(t, Cents(12999), in.Price)

    assert.Equal(t, "-0.05", Cents(-5).String())
}

func TestBookingTotal(t *testing.T) {
    b := Booking{Seats: []Seat{{Price: 1000}, {Price: 2550}}}
    assert.Equal(t, Cents(3550), b.Total())
}

func TestSessionActive(t *testing.T) {
    now := time.Now()
    s := Session{ExpiresAt: now.Add(time.Minute)}
    assert.True(t, s.Active(now))

    revoked := now
    s.RevokedAt = &revoked
    assert.False(t, s.Active(now))

    assert.False(t, Session{ExpiresAt: now}.Active(now))
}
