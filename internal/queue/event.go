// Package queue defines message payloads exchanged over the message
// broker and the publisher/consumer pair around the booking.confirmed
// queue.
package queue

// BookingConfirmedEvent is published when a booking is successfully
// finalized.  It carries enough information for downstream consumers
// to generate receipts, notify the buyer, or feed analytics without
// querying the primary database.
type BookingConfirmedEvent struct {
	BookingID    uint64   `json:"booking_id"`
	BookingRef   string   `json:"booking_ref"`
	UserID       uint64   `json:"user_id"`
	ShowID       uint64   `json:"show_id"`
	MovieID      uint64   `json:"movie_id"`
	TheaterID    uint64   `json:"theater_id"`
	SeatLabels   []string `json:"seats"`
	TotalCents   int64    `json:"total_cents"`
	CardBrand    string   `json:"card_brand"`
	CardLastFour string   `json:"card_last_four"`
	ConfirmedAt  string   `json:"confirmed_at"`
}
