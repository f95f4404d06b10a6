package model

import "time"

// Movie holds the catalog attributes of a film that the booking core
// needs: identity for denormalized booking rows and the optional
// per-format premium overrides consulted by the pricing calculator.
// Catalog management itself (posters, synopses, search) is owned by a
// separate service.
//
// Fields:
//
//	ID                  – primary key identifier.
//	Title               – display title, denormalized into bookings.
//	FormatPremiumCents  – per-format premium overrides in cents; formats
//	                      missing from the table fall back to configured
//	                      defaults.
//	CreatedAt           – creation timestamp.
//	UpdatedAt           – last update timestamp.
type Movie struct {
	ID                 uint64           // movies.id
	Title              string           // movies.title
	FormatPremiumCents map[Format]int64 // movies.format_premiums (JSON column)
	CreatedAt          time.Time        // movies.created_at
	UpdatedAt          time.Time        // movies.updated_at
}
