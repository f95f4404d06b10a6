package model

import "time"

// PaymentStatus is the terminal payment state of a booking.  Bookings
// are written only after payment has been validated by the caller, so
// there is no stored PENDING state; an in-progress purchase exists
// only as LOCKED seats.
type PaymentStatus string

// Terminal payment states.
const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Booking is an immutable record of a completed purchase.  It is
// created atomically with the seat flips to BOOKED and never mutated
// afterwards except for payment-status transitions in refund flows.
// Show, movie and theater identifiers are denormalized for cheap
// history reads.
//
// Fields:
//
//	ID            – primary key identifier.
//	BookingRef    – unique human-readable reference code ("BK-...").
//	UserID        – buyer who owns the booking.
//	ShowID        – screening the seats belong to.
//	MovieID       – movie of the screening (denormalized).
//	TheaterID     – venue of the screening (denormalized).
//	TotalCents    – sum of the per-seat prices paid, in cents.
//	PaymentStatus – terminal payment state.
//	CardBrand     – card brand from the payment proof.
//	CardLastFour  – last four digits from the payment proof.
//	CreatedAt     – creation timestamp.
type Booking struct {
	ID            uint64        // bookings.id
	BookingRef    string        // bookings.booking_ref
	UserID        uint64        // bookings.user_id
	ShowID        uint64        // bookings.show_id
	MovieID       uint64        // bookings.movie_id
	TheaterID     uint64        // bookings.theater_id
	TotalCents    int64         // bookings.total_cents
	PaymentStatus PaymentStatus // bookings.payment_status
	CardBrand     string        // bookings.card_brand
	CardLastFour  string        // bookings.card_last_four
	CreatedAt     time.Time     // bookings.created_at
}

// BookingSeat links a booking to one seat and records the exact price
// paid for it at finalization time.  The set of seats under a booking
// is immutable once created.
//
// Fields:
//
//	ID         – primary key identifier.
//	BookingID  – owning booking.
//	SeatID     – show seat that was booked.
//	SeatLabel  – seat label at booking time (denormalized).
//	PriceCents – price paid for this seat, in cents.
type BookingSeat struct {
	ID         uint64 // booking_seats.id
	BookingID  uint64 // booking_seats.booking_id
	SeatID     uint64 // booking_seats.seat_id
	SeatLabel  string // booking_seats.seat_label
	PriceCents int64  // booking_seats.price_cents
}
