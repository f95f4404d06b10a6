package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/screenseat/booking/internal/booking"
	"github.com/screenseat/booking/internal/model"
)

// BookingRepo provides read access to bookings and their seats.
// Booking rows are written by the engine inside the seat transaction
// (see ShowSeatRepo.UpdateSeats); this repository only serves history
// and detail queries.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingSeatDetail is one booked seat with the price paid for it.
type BookingSeatDetail struct {
	SeatID     uint64 `json:"seat_id"`
	SeatLabel  string `json:"seat_label"`
	PriceCents int64  `json:"price_cents"`
}

// BookingDetail is a booking joined with display data from the shows
// and movies tables, returned to customers listing their tickets.
type BookingDetail struct {
	ID            uint64              `json:"id"`
	BookingRef    string              `json:"booking_ref"`
	ShowID        uint64              `json:"show_id"`
	MovieTitle    string              `json:"movie_title"`
	TheaterID     uint64              `json:"theater_id"`
	ScreenName    string              `json:"screen_name"`
	Format        model.Format        `json:"format"`
	StartsAt      time.Time           `json:"starts_at"`
	TotalCents    int64               `json:"total_cents"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	CardBrand     string              `json:"card_brand"`
	CardLastFour  string              `json:"card_last_four"`
	CreatedAt     time.Time           `json:"created_at"`
	Seats         []BookingSeatDetail `json:"seats"`
}

const bookingDetailQuery = `SELECT b.id, b.booking_ref, b.show_id, m.title, b.theater_id,
                                   s.screen_name, s.format, s.starts_at,
                                   b.total_cents, b.payment_status, b.card_brand, b.card_last_four, b.created_at
                            FROM bookings b
                            JOIN shows s ON s.id = b.show_id
                            JOIN movies m ON m.id = b.movie_id`

// ListByUser returns all bookings of the user, newest first, with
// their seats populated.  When no bookings exist, an empty slice is
// returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	q := bookingDetailQuery + ` WHERE b.user_id = ? ORDER BY b.created_at DESC`
	return r.listDetails(ctx, q, userID)
}

// ListUpcomingByUser returns the user's bookings for shows that start
// after now, soonest first.  These are the tickets still usable at
// the door.
func (r *BookingRepo) ListUpcomingByUser(ctx context.Context, userID uint64, now time.Time) ([]BookingDetail, error) {
	q := bookingDetailQuery + ` WHERE b.user_id = ? AND s.starts_at > ? ORDER BY s.starts_at ASC`
	return r.listDetails(ctx, q, userID, now.UTC().Format(dbTimeLayout))
}

// GetByRefForUser returns a single booking by its reference code,
// enforcing ownership.  It returns booking.ErrBookingNotFound when no
// booking with that reference belongs to the user.
func (r *BookingRepo) GetByRefForUser(ctx context.Context, ref string, userID uint64) (*BookingDetail, error) {
	q := bookingDetailQuery + ` WHERE b.booking_ref = ? AND b.user_id = ?`
	details, err := r.listDetails(ctx, q, ref, userID)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, booking.ErrBookingNotFound
	}
	return &details[0], nil
}

// listDetails runs a booking detail query, then populates the seats
// of every returned booking in a single follow-up query.
func (r *BookingRepo) listDetails(ctx context.Context, query string, args ...interface{}) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(
			&d.ID, &d.BookingRef, &d.ShowID, &d.MovieTitle, &d.TheaterID,
			&d.ScreenName, &d.Format, &d.StartsAt,
			&d.TotalCents, &d.PaymentStatus, &d.CardBrand, &d.CardLastFour, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		d.Seats = []BookingSeatDetail{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Fetch seats for all bookings in one query.
	ids := make([]interface{}, 0, len(details))
	marks := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		marks = append(marks, "?")
	}
	seatQuery := `SELECT booking_id, seat_id, seat_label, price_cents
                  FROM booking_seats
                  WHERE booking_id IN (` + strings.Join(marks, ",") + `)
                  ORDER BY booking_id, seat_label`
	srows, err := r.db.QueryContext(ctx, seatQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var bid uint64
		var seat BookingSeatDetail
		if err := srows.Scan(&bid, &seat.SeatID, &seat.SeatLabel, &seat.PriceCents); err != nil {
			return nil, err
		}
		if idx, ok := index[bid]; ok {
			details[idx].Seats = append(details[idx].Seats, seat)
		}
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// errNoRows reports whether err is the driver's no-rows sentinel.
func errNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
