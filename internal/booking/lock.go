package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/screenseat/booking/internal/model"
)

// LockedSeat is one seat claimed by LockSeats, with the price quoted
// at lock time for client display.  The quote is recomputed at
// finalization; it is informational here.
type LockedSeat struct {
	SeatID     uint64     `json:"seat_id"`
	SeatLabel  string     `json:"seat_label"`
	Tier       model.Tier `json:"tier"`
	PriceCents int64      `json:"price_cents"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// LockSeats gives the user an exclusive time-bounded claim on the
// named seats of a show.  The batch is all-or-nothing: if any seat is
// not effectively available the whole request fails with a
// SeatConflictError naming the blocking seats, and no seat is
// touched.  A seat whose previous lock has expired can be claimed
// even if the reaper has not yet cleared it.
func (s *Service) LockSeats(ctx context.Context, userID, showID uint64, seatIDs []uint64) ([]LockedSeat, error) {
	ids, err := s.normalizeSeatIDs(seatIDs)
	if err != nil {
		return nil, err
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
	expiresAt := now.Add(s.cfg.LockTTL)
	var locked []LockedSeat
	err = s.store.UpdateSeats(ctx, showID, ids, func(tx SeatTx) error {
		if err := checkSeatBatch(tx, showID, len(ids)); err != nil {
			return err
		}
		// Availability is evaluated against the lock expiry, not the
		// stored status: an expired foreign lock does not block.
		var unavailable []uint64
		for _, seat := range tx.Seats() {
			if !seat.EffectivelyAvailable(now) {
				unavailable = append(unavailable, seat.ID)
			}
		}
		if len(unavailable) > 0 {
			return &SeatConflictError{Reason: ConflictUnavailable, SeatIDs: unavailable}
		}
		if err := tx.LockSeats(ids, userID, expiresAt); err != nil {
			return err
		}
		locked = make([]LockedSeat, 0, len(ids))
		for _, seat := range tx.Seats() {
			locked = append(locked, LockedSeat{
				SeatID:     seat.ID,
				SeatLabel:  seat.SeatLabel,
				Tier:       seat.Tier,
				PriceCents: s.calc.SeatPrice(show, seat.Tier, movie),
				ExpiresAt:  expiresAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("seats locked",
		zap.Uint64("user_id", userID),
		zap.Uint64("show_id", showID),
		zap.Int("seats", len(locked)),
		zap.Time("expires_at", expiresAt))
	return locked, nil
}

// ReleaseSeats drops the user's unexpired locks on a show ahead of
// their TTL.  Releasing early is a courtesy to other buyers, not a
// correctness requirement; expiry reclaims abandoned locks either
// way.  It returns how many seats were freed.
func (s *Service) ReleaseSeats(ctx context.Context, userID, showID uint64) (int64, error) {
	if _, err := s.shows.GetByID(ctx, showID); err != nil {
		return 0, err
	}
	released, err := s.store.ReleaseUserLocks(ctx, showID, userID)
	if err != nil {
		return 0, err
	}
	if released > 0 {
		s.logger.Info("locks released",
			zap.Uint64("user_id", userID),
			zap.Uint64("show_id", showID),
			zap.Int64("seats", released))
	}
	return released, nil
}
