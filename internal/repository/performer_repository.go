package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/concert-booking/internal/model"
)

type PerformerRepo struct{ db *sql.DB }

func NewPerformerRepo(db *sql.DB) *PerformerRepo { return &PerformerRepo{db: db} }

// GetByID fetches a performer or ErrPerformerNotFound.
func (r *PerformerRepo) GetByID(ctx context.Context, id uint64) (*model.Performer, error) {
	var p model.Performer
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, image_name, genre, blurb FROM performers WHERE id=? LIMIT 1", id).
		Scan(&p.ID, &p.Name, &p.ImageName, &p.Genre, &p.Blurb)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPerformerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAll returns every performer ordered by id.
func (r *PerformerRepo) ListAll(ctx context.Context) ([]model.Performer, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, image_name, genre, blurb FROM performers ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Performer, 0)
	for rows.Next() {
		var p model.Performer
		if err := rows.Scan(&p.ID, &p.Name, &p.ImageName, &p.Genre, &p.Blurb); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a performer and sets p.ID.
func (r *PerformerRepo) Create(ctx context.Context, p *model.Performer) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO performers (name, image_name, genre, blurb) VALUES (?,?,?,?)",
		p.Name, p.ImageName, p.Genre, p.Blurb)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}
