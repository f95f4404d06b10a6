package model

import "time"

// Format identifies the presentation format of a show.  The format
// determines the premium added on top of the tier-adjusted base
// price.
type Format string

// Known presentation formats.  The values match the format keys used
// in per-movie premium override tables.
const (
	FormatStandard2D Format = "STANDARD_2D"
	FormatStandard3D Format = "STANDARD_3D"
	FormatIMAX2D     Format = "IMAX_2D"
	FormatIMAX3D     Format = "IMAX_3D"
	FormatFourDX     Format = "FOUR_DX"
	FormatDolbyAtmos Format = "DOLBY_ATMOS"
)

// Show represents one scheduled screening of a movie on a screen of a
// theater.  It carries the pricing context needed to quote a seat:
// the presentation format and an optional per-tier base price table.
// Seat inventory for the show lives in show_seats.
//
// Fields:
//
//	ID              – primary key identifier.
//	MovieID         – movie being screened.
//	TheaterID       – theater (venue) hosting the screening.
//	ScreenName      – name of the screen within the theater.
//	Format          – presentation format (IMAX_3D, STANDARD_2D, ...).
//	Language        – audio language of this screening.
//	StartsAt        – when the screening begins (UTC).
//	BasePriceCents  – per-tier base prices in cents; tiers missing
//	                  from the table fall back to configured defaults.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last update timestamp.
type Show struct {
	ID             uint64         // shows.id
	MovieID        uint64         // shows.movie_id
	TheaterID      uint64         // shows.theater_id
	ScreenName     string         // shows.screen_name
	Format         Format         // shows.format
	Language       string         // shows.language
	StartsAt       time.Time      // shows.starts_at
	BasePriceCents map[Tier]int64 // shows.base_prices (JSON column)
	CreatedAt      time.Time      // shows.created_at
	UpdatedAt      time.Time      // shows.updated_at
}
