package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/screenseat/booking/internal/booking"
	"github.com/screenseat/booking/internal/model"
)

// ShowRepo provides read access to the shows table.  Show creation
// and scheduling belong to the catalog service; the booking core only
// resolves the pricing context of a screening.  It implements
// booking.ShowCatalog.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo returns a ShowRepo bound to the given database.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// GetByID returns the show with the given id.  The per-tier base
// price table is stored as a JSON column; a NULL column yields a nil
// map, which makes the pricing calculator fall back to its defaults.
// It returns booking.ErrShowNotFound when no such show exists.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	const q = `SELECT id, movie_id, theater_id, screen_name, format, language, starts_at, base_prices, created_at, updated_at
               FROM shows WHERE id = ?`
	var s model.Show
	var basePrices sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.MovieID, &s.TheaterID, &s.ScreenName, &s.Format, &s.Language,
		&s.StartsAt, &basePrices, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errNoRows(err) {
			return nil, booking.ErrShowNotFound
		}
		return nil, err
	}
	s.StartsAt = s.StartsAt.UTC()
	if basePrices.Valid && basePrices.String != "" {
		if err := json.Unmarshal([]byte(basePrices.String), &s.BasePriceCents); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
