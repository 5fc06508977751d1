package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/concert-booking/internal/model"
)

// ConcertRepo provides read access to the concert catalog plus the
// insert helpers the seeder uses.  A concert's dates and performers
// live in the concert_dates and concert_performers tables.
type ConcertRepo struct {
	db *sql.DB
}

// NewConcertRepo returns a new ConcertRepo bound to the given database.
func NewConcertRepo(db *sql.DB) *ConcertRepo { return &ConcertRepo{db: db} }

// GetByID loads one concert with its dates and performers.  It returns
// ErrConcertNotFound when no concert has the id.
func (r *ConcertRepo) GetByID(ctx context.Context, id uint64) (*model.Concert, error) {
	var c model.Concert
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, image_name, blurb FROM concerts WHERE id = ?`, id).
		Scan(&c.ID, &c.Title, &c.ImageName, &c.Blurb)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConcertNotFound
	}
	if err != nil {
		return nil, err
	}

	byID := map[uint64]*model.Concert{c.ID: &c}
	if err := r.loadDates(ctx, byID, `WHERE concert_id = ?`, id); err != nil {
		return nil, err
	}
	if err := r.loadPerformers(ctx, byID, `WHERE cp.concert_id = ?`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListAll returns every concert ordered by id, each with its dates and
// performers populated.
func (r *ConcertRepo) ListAll(ctx context.Context) ([]model.Concert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, image_name, blurb FROM concerts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	concerts := make([]model.Concert, 0)
	for rows.Next() {
		var c model.Concert
		if err := rows.Scan(&c.ID, &c.Title, &c.ImageName, &c.Blurb); err != nil {
			return nil, err
		}
		concerts = append(concerts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(concerts) == 0 {
		return concerts, nil
	}

	// Index into the slice so the batch loaders can append in place.
	byID := make(map[uint64]*model.Concert, len(concerts))
	for i := range concerts {
		byID[concerts[i].ID] = &concerts[i]
	}
	if err := r.loadDates(ctx, byID, ""); err != nil {
		return nil, err
	}
	if err := r.loadPerformers(ctx, byID, ""); err != nil {
		return nil, err
	}
	return concerts, nil
}

// ListSummaries returns (id, title, image) for every concert.
func (r *ConcertRepo) ListSummaries(ctx context.Context) ([]model.ConcertSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, image_name FROM concerts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ConcertSummary, 0)
	for rows.Next() {
		var s model.ConcertSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.ImageName); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// HasDate reports whether the concert plays on date.  A missing concert
// yields ErrConcertNotFound rather than false.
func (r *ConcertRepo) HasDate(ctx context.Context, concertID uint64, date time.Time) (bool, error) {
	const q = `SELECT c.id, cd.concert_id IS NOT NULL
	           FROM concerts c
	           LEFT JOIN concert_dates cd ON cd.concert_id = c.id AND cd.date = ?
	           WHERE c.id = ?`
	var id uint64
	var ok bool
	err := r.db.QueryRowContext(ctx, q, date, concertID).Scan(&id, &ok)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrConcertNotFound
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// DateScheduled reports whether any concert plays on date.
func (r *ConcertRepo) DateScheduled(ctx context.Context, date time.Time) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM concert_dates WHERE date = ?)`, date).Scan(&ok)
	return ok, err
}

// Create inserts a concert together with its dates and performer links
// in one transaction and sets c.ID.  Performers must already exist.
func (r *ConcertRepo) Create(ctx context.Context, c *model.Concert) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO concerts (title, image_name, blurb) VALUES (?, ?, ?)`,
		c.Title, c.ImageName, c.Blurb)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	if err := r.AddDatesTx(ctx, tx, c.ID, c.Dates); err != nil {
		return err
	}
	ids := make([]uint64, 0, len(c.Performers))
	for _, p := range c.Performers {
		ids = append(ids, p.ID)
	}
	if err := r.AddPerformersTx(ctx, tx, c.ID, ids); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AddDatesTx schedules the concert on each date.  Duplicates are ignored.
func (r *ConcertRepo) AddDatesTx(ctx context.Context, tx *sql.Tx, concertID uint64, dates []time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	query := `INSERT IGNORE INTO concert_dates (concert_id, date) VALUES `
	args := make([]interface{}, 0, len(dates)*2)
	for i, d := range dates {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, concertID, d.UTC())
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// AddPerformersTx links performers to the concert.  Duplicates are ignored.
func (r *ConcertRepo) AddPerformersTx(ctx context.Context, tx *sql.Tx, concertID uint64, performerIDs []uint64) error {
	if len(performerIDs) == 0 {
		return nil
	}
	query := `INSERT IGNORE INTO concert_performers (concert_id, performer_id) VALUES `
	args := make([]interface{}, 0, len(performerIDs)*2)
	for i, pid := range performerIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, concertID, pid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func (r *ConcertRepo) loadDates(ctx context.Context, byID map[uint64]*model.Concert, where string, args ...interface{}) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT concert_id, date FROM concert_dates `+where+` ORDER BY concert_id, date`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid uint64
		var d time.Time
		if err := rows.Scan(&cid, &d); err != nil {
			return err
		}
		if c, ok := byID[cid]; ok {
			c.Dates = append(c.Dates, d.UTC())
		}
	}
	return rows.Err()
}

func (r *ConcertRepo) loadPerformers(ctx context.Context, byID map[uint64]*model.Concert, where string, args ...interface{}) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cp.concert_id, p.id, p.name, p.image_name, p.genre, p.blurb
		 FROM concert_performers cp
		 JOIN performers p ON p.id = cp.performer_id `+where+`
		 ORDER BY cp.concert_id, p.id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid uint64
		var p model.Performer
		if err := rows.Scan(&cid, &p.ID, &p.Name, &p.ImageName, &p.Genre, &p.Blurb); err != nil {
			return err
		}
		if c, ok := byID[cid]; ok {
			c.Performers = append(c.Performers, p)
		}
	}
	return rows.Err()
}
