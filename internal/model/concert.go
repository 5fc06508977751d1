package model

import "time"

// Concert is a row in the `concerts` table together with its
// schedule (`concert_dates`) and line-up (`concert_performers`).
// Dates are unique per concert and carry no ordering guarantee
// beyond what the repository applies when loading them.
//
// Fields:
//  ID         – primary key identifier.
//  Title      – display title.
//  ImageName  – file name of the promotional image.
//  Blurb      – descriptive text.
//  Dates      – performance dates, UTC.
//  Performers – performers appearing at the concert.
type Concert struct {
    ID         uint64      // concerts.id
    Title      string      // concerts.title
    ImageName  string      // concerts.image_name
    Blurb      string      // concerts.blurb
    Dates      []time.Time // concert_dates.date
    Performers []Performer // via concert_performers
}

// ConcertSummary is the lightweight projection used by list screens.
type ConcertSummary struct {
    ID        uint64
    Title     string
    ImageName string
}
