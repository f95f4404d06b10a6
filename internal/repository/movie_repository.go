package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/screenseat/booking/internal/booking"
	"github.com/screenseat/booking/internal/model"
)

// MovieRepo provides read access to the movies table.  It implements
// booking.MovieCatalog.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo returns a MovieRepo bound to the given database.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// GetByID returns the movie with the given id.  The per-format
// premium override table is stored as a JSON column; NULL yields a
// nil map and the pricing defaults apply.  It returns
// booking.ErrMovieNotFound when no such movie exists.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT id, title, format_premiums, created_at, updated_at FROM movies WHERE id = ?`
	var m model.Movie
	var premiums sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &premiums, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errNoRows(err) {
			return nil, booking.ErrMovieNotFound
		}
		return nil, err
	}
	if premiums.Valid && premiums.String != "" {
		if err := json.Unmarshal([]byte(premiums.String), &m.FormatPremiumCents); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
