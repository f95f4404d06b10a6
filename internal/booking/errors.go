// Package booking implements the seat-inventory reservation engine:
// the seat state machine, the temporary lock protocol, atomic
// finalization of locks into bookings, and reclamation of expired
// locks.
package booking

import (
	"errors"
	"fmt"
)

// Validation errors.  These are returned before any inventory row is
// touched and map to HTTP 400.
var (
	// ErrNoSeats is returned when a request names no valid seat ids.
	ErrNoSeats = errors.New("no seats requested")
	// ErrTooManySeats is returned when a request exceeds the per-order
	// seat limit.
	ErrTooManySeats = errors.New("too many seats requested")
	// ErrInvalidPaymentProof is returned when the payment proof passed
	// to Finalize is missing its card details.
	ErrInvalidPaymentProof = errors.New("invalid payment proof")
)

// Not-found errors.  Repository implementations translate missing
// rows into these sentinels so handlers can map them to HTTP 404.
var (
	ErrShowNotFound    = errors.New("show not found")
	ErrMovieNotFound   = errors.New("movie not found")
	ErrSeatNotFound    = errors.New("seat not found")
	ErrBookingNotFound = errors.New("booking not found")
)

// Conflict reasons carried by SeatConflictError.
const (
	ConflictUnavailable = "seat unavailable"
	ConflictLockExpired = "lock expired"
	ConflictNotHolder   = "seat not locked by buyer"
)

// SeatConflictError reports that specific seats blocked an operation.
// The whole batch is rejected with no mutation performed; SeatIDs
// names exactly the offending seats so the client can refresh its
// selection and retry.
type SeatConflictError struct {
	Reason  string
	SeatIDs []uint64
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("%s: seats %v", e.Reason, e.SeatIDs)
}
