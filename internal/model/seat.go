package model

import "time"

// Tier is the pricing category of a seat.  Every seat in a show's
// inventory belongs to exactly one tier and the tier determines the
// multiplier applied to the show's base price.
type Tier string

// Seat tiers, ordered from cheapest to most expensive.
const (
	TierClassic Tier = "CLASSIC"
	TierPrime   Tier = "PRIME"
	TierPremium Tier = "PREMIUM"
	TierVIP     Tier = "VIP"
)

// Tiers lists all known seat tiers in display order.
var Tiers = []Tier{TierClassic, TierPrime, TierPremium, TierVIP}

// SeatStatus is the stored availability state of a show seat.
type SeatStatus string

// Stored seat states.  BOOKED is terminal: once a seat is booked it
// never transitions again.  A LOCKED seat whose locked_until has
// passed counts as available; that check happens at read time rather
// than relying on the background reaper having run.
const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatLocked    SeatStatus = "LOCKED"
	SeatBooked    SeatStatus = "BOOKED"
)

// ShowSeat is one bookable seat for one scheduled show.  Rows are
// unique per (show_id, seat_label).  A temporary lock is not a
// separate record; it is the LOCKED status together with the
// locked_by/locked_until columns on this row.
//
// Fields:
//
//	ID          – primary key identifier.
//	ShowID      – show whose inventory this seat belongs to.
//	SeatLabel   – human label such as "A1".
//	RowLabel    – letter designating the row, such as "A".
//	Tier        – pricing tier of the seat.
//	Status      – stored state (AVAILABLE, LOCKED, BOOKED).
//	LockedBy    – user holding the lock; nil unless LOCKED.
//	LockedUntil – lock expiry in UTC; nil unless LOCKED.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type ShowSeat struct {
	ID          uint64     // show_seats.id
	ShowID      uint64     // show_seats.show_id
	SeatLabel   string     // show_seats.seat_label
	RowLabel    string     // show_seats.row_label
	Tier        Tier       // show_seats.tier
	Status      SeatStatus // show_seats.status
	LockedBy    *uint64    // show_seats.locked_by (nullable)
	LockedUntil *time.Time // show_seats.locked_until (nullable)
	CreatedAt   time.Time  // show_seats.created_at
	UpdatedAt   time.Time  // show_seats.updated_at
}

// EffectiveStatus returns the state of the seat as observed at the
// given instant.  A lock whose expiry has passed is reported as
// AVAILABLE even if the reaper has not yet cleared the row.
func (s *ShowSeat) EffectiveStatus(now time.Time) SeatStatus {
	if s.Status == SeatLocked && s.LockedUntil != nil && !s.LockedUntil.After(now) {
		return SeatAvailable
	}
	return s.Status
}

// EffectivelyAvailable reports whether the seat can be claimed by a
// new lock request at the given instant.
func (s *ShowSeat) EffectivelyAvailable(now time.Time) bool {
	return s.EffectiveStatus(now) == SeatAvailable
}

// LockedByUser reports whether the seat carries an unexpired lock
// held by the given user at the given instant.
func (s *ShowSeat) LockedByUser(userID uint64, now time.Time) bool {
	return s.Status == SeatLocked &&
		s.LockedBy != nil && *s.LockedBy == userID &&
		s.LockedUntil != nil && s.LockedUntil.After(now)
}
