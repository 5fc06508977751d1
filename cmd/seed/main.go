// Command seed loads a demo catalog, seat grid and user accounts so the
// API can be exercised locally.  It is safe to run more than once: the
// catalog is skipped when concerts already exist and existing users are
// left alone.
package main

import (
    "context"
    "database/sql"
    "errors"
    "flag"
    "fmt"
    "os"
    "time"

    "github.com/iliyamo/concert-booking/internal/config"
    "github.com/iliyamo/concert-booking/internal/database"
    "github.com/iliyamo/concert-booking/internal/logging"
    "github.com/iliyamo/concert-booking/internal/model"
    "github.com/iliyamo/concert-booking/internal/repository"
)

var rows = []byte("ABCDEFGHIJ")

// priceFor returns the seat price for a row: front rows cost more.
func priceFor(row byte) model.Cents {
    switch {
    case row <= 'C':
        return 10000
    case row <= 'F':
        return 7500
    default:
        return 5000
    }
}

// seatGrid builds every seat for one date.
func seatGrid(date time.Time, perRow int) []model.Seat {
    seats := make([]model.Seat, 0, len(rows)*perRow)
    for _, r := range rows {
        for n := 1; n <= perRow; n++ {
            seats = append(seats, model.Seat{
                Label: fmt.Sprintf("%c%d", r, n),
                Date:  date,
                Price: priceFor(r),
            })
        }
    }
    return seats
}

func day(y int, m time.Month, d int) time.Time {
    return time.Date(y, m, d, 20, 0, 0, 0, time.UTC)
}

func main() {
    perRow := flag.Int("seats-per-row", 12, "seats in each of rows A-J")
    flag.Parse()

    cfg := config.Load()
    log := logging.New(logging.Config{Level: cfg.LogLevel, Format: "text", Output: os.Stdout})

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
    defer cancel()

    db, err := database.Open(ctx, database.Options{
        User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
    })
    if err != nil {
        log.Fatal().Err(err).Msg("open database")
    }
    defer db.Close()
    if err := database.Migrate(db); err != nil {
        log.Fatal().Err(err).Msg("migrate database")
    }

    concerts := repository.NewConcertRepo(db)
    existing, err := concerts.ListSummaries(ctx)
    if err != nil {
        log.Fatal().Err(err).Msg("list concerts")
    }
    if len(existing) == 0 {
        if err := seedCatalog(ctx, db, *perRow); err != nil {
            log.Fatal().Err(err).Msg("seed catalog")
        }
        log.Info().Msg("catalog seeded")
    } else {
        log.Info().Int("concerts", len(existing)).Msg("catalog present, skipping")
    }

    users := repository.NewUserRepo(db)
    for _, u := range []struct{ name, pass string }{
        {"testuser", "pa55word"},
        {"ConcertFan", "password"},
        {"Bob", "secret"},
    } {
        _, err := users.Create(ctx, u.name, u.pass, cfg.BcryptCost)
        switch {
        case errors.Is(err, repository.ErrUsernameExists):
            log.Info().Str("user", u.name).Msg("user exists")
        case err != nil:
            log.Fatal().Err(err).Str("user", u.name).Msg("create user")
        default:
            log.Info().Str("user", u.name).Msg("user created")
        }
    }
}

func seedCatalog(ctx context.Context, db *sql.DB, perRow int) error {
    performers := repository.NewPerformerRepo(db)
    concerts := repository.NewConcertRepo(db)
    seats := repository.NewSeatRepo(db)

    lineup := []*model.Performer{
        {Name: "Bastille", ImageName: "bastille.jpg", Genre: "Pop", Blurb: "British indie pop band."},
        {Name: "Ed Sheeran", ImageName: "ed.jpg", Genre: "Pop", Blurb: "Singer-songwriter from Halifax."},
        {Name: "The Beatles Tribute", ImageName: "beatles.jpg", Genre: "Rock", Blurb: "Hits from Liverpool's finest."},
        {Name: "Khruangbin", ImageName: "khruangbin.jpg", Genre: "Funk", Blurb: "Texan psychedelic trio."},
    }
    for _, p := range lineup {
        if err := performers.Create(ctx, p); err != nil {
            return fmt.Errorf("create performer %s: %w", p.Name, err)
        }
    }

    catalog := []model.Concert{
        {
            Title: "Doom Days Tour", ImageName: "doomdays.jpg", Blurb: "An evening of anthems.",
            Dates:      []time.Time{day(2026, time.February, 15), day(2026, time.February, 16)},
            Performers: []model.Performer{*lineup[0]},
        },
        {
            Title: "Divide World Tour", ImageName: "divide.jpg", Blurb: "Loop pedals and ballads.",
            Dates:      []time.Time{day(2026, time.March, 20)},
            Performers: []model.Performer{*lineup[1]},
        },
        {
            Title: "Summer Session", ImageName: "summer.jpg", Blurb: "A double bill under the stars.",
            Dates:      []time.Time{day(2026, time.April, 4), day(2026, time.April, 5)},
            Performers: []model.Performer{*lineup[2], *lineup[3]},
        },
    }

    dates := map[time.Time]bool{}
    for i := range catalog {
        if err := concerts.Create(ctx, &catalog[i]); err != nil {
            return fmt.Errorf("create concert %s: %w", catalog[i].Title, err)
        }
        for _, d := range catalog[i].Dates {
            dates[d] = true
        }
    }
    for d := range dates {
        if err := seats.CreateBulk(ctx, seatGrid(d, perRow)); err != nil {
            return fmt.Errorf("create seats for %s: %w", model.FormatDate(d), err)
        }
    }
    return nil
}
