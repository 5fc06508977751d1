package handler

import "github.com/iliyamo/concert-booking/internal/model"

// Response bodies.  Dates use model.DateLayout and prices are decimals.

type performerView struct {
    ID        uint64 `json:"id"`
    Name      string `json:"name"`
    ImageName string `json:"imageName"`
    Genre     string `json:"genre"`
    Blurb     string `json:"blurb"`
}

type concertView struct {
    ID         uint64          `json:"id"`
    Title      string          `json:"title"`
    ImageName  string          `json:"imageName"`
    Blurb      string          `json:"blurb"`
    Dates      []string        `json:"dates"`
    Performers []performerView `json:"performers"`
}

type concertSummaryView struct {
    ID        uint64 `json:"id"`
    Title     string `json:"title"`
    ImageName string `json:"imageName"`
}

type seatView struct {
    Label string      `json:"label"`
    Price model.Cents `json:"price"`
}

type bookingView struct {
    ID        uint64     `json:"id"`
    ConcertID uint64     `json:"concertId"`
    Date      string     `json:"date"`
    Seats     []seatView `json:"seats"`
}

func toPerformerView(p model.Performer) performerView {
    return performerView{ID: p.ID, Name: p.Name, ImageName: p.ImageName, Genre: p.Genre, Blurb: p.Blurb}
}

func toConcertView(c model.Concert) concertView {
    v := concertView{
        ID:         c.ID,
        Title:      c.Title,
        ImageName:  c.ImageName,
        Blurb:      c.Blurb,
        Dates:      make([]string, 0, len(c.Dates)),
        Performers: make([]performerView, 0, len(c.Performers)),
    }
    for _, d := range c.Dates {
        v.Dates = append(v.Dates, model.FormatDate(d))
    }
    for _, p := range c.Performers {
        v.Performers = append(v.Performers, toPerformerView(p))
    }
    return v
}

func toSeatViews(seats []model.Seat) []seatView {
    out := make([]seatView, 0, len(seats))
    for _, s := range seats {
        out = append(out, seatView{Label: s.Label, Price: s.Price})
    }
    return out
}

func toBookingView(b model.Booking) bookingView {
    return bookingView{
        ID:        b.ID,
        ConcertID: b.ConcertID,
        Date:      model.FormatDate(b.Date),
        Seats:     toSeatViews(b.Seats),
    }
}
