package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/screenseat/booking/internal/model"
)

// PaymentProof is the already-validated payment evidence supplied by
// the caller.  The core never talks to a payment gateway; by the time
// Finalize runs, payment has succeeded upstream.
type PaymentProof struct {
	CardBrand    string `json:"card_brand"`
	CardLastFour string `json:"card_last_four"`
}

// Confirmation is the result of a successful finalization: the
// immutable booking row and the per-seat prices paid.
type Confirmation struct {
	Booking model.Booking       `json:"booking"`
	Seats   []model.BookingSeat `json:"seats"`
}

// Finalize converts the user's locks on the named seats into a
// booking.  Time has passed since LockSeats, so holder and expiry are
// re-validated under fresh row locks rather than trusted.  Each seat
// is then priced, the batch flips to BOOKED and the booking row is
// written in the same transaction.  Any violation aborts the whole
// request with no seat state change and no booking written.
func (s *Service) Finalize(ctx context.Context, userID, showID uint64, seatIDs []uint64, proof PaymentProof) (*Confirmation, error) {
	ids, err := s.normalizeSeatIDs(seatIDs)
	if err != nil {
		return nil, err
	}
	if proof.CardBrand == "" || proof.CardLastFour == "" {
		return nil, ErrInvalidPaymentProof
	}
	show, err := s.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	movie, err := s.movies.GetByID(ctx, show.MovieID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var conf *Confirmation
	err = s.store.UpdateSeats(ctx, showID, ids, func(tx SeatTx) error {
		if err := checkSeatBatch(tx, showID, len(ids)); err != nil {
			return err
		}
		var expired, foreign []uint64
		for _, seat := range tx.Seats() {
			switch {
			case seat.LockedByUser(userID, now):
				// valid claim
			case seat.Status == model.SeatLocked && seat.LockedBy != nil && *seat.LockedBy == userID:
				expired = append(expired, seat.ID)
			default:
				foreign = append(foreign, seat.ID)
			}
		}
		if len(foreign) > 0 {
			return &SeatConflictError{Reason: ConflictNotHolder, SeatIDs: foreign}
		}
		if len(expired) > 0 {
			return &SeatConflictError{Reason: ConflictLockExpired, SeatIDs: expired}
		}

		var total int64
		bookingSeats := make([]model.BookingSeat, 0, len(ids))
		for _, seat := range tx.Seats() {
			price := s.calc.SeatPrice(show, seat.Tier, movie)
			total += price
			bookingSeats = append(bookingSeats, model.BookingSeat{
				SeatID:     seat.ID,
				SeatLabel:  seat.SeatLabel,
				PriceCents: price,
			})
		}
		if err := tx.BookSeats(ids); err != nil {
			return err
		}
		b := model.Booking{
			BookingRef:    newBookingRef(),
			UserID:        userID,
			ShowID:        showID,
			MovieID:       show.MovieID,
			TheaterID:     show.TheaterID,
			TotalCents:    total,
			PaymentStatus: model.PaymentCompleted,
			CardBrand:     proof.CardBrand,
			CardLastFour:  proof.CardLastFour,
		}
		if err := tx.InsertBooking(&b, bookingSeats); err != nil {
			return err
		}
		conf = &Confirmation{Booking: b, Seats: bookingSeats}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking finalized",
		zap.String("booking_ref", conf.Booking.BookingRef),
		zap.Uint64("user_id", userID),
		zap.Uint64("show_id", showID),
		zap.Int("seats", len(conf.Seats)),
		zap.Int64("total_cents", conf.Booking.TotalCents))
	return conf, nil
}
