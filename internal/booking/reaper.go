package booking

import (
	"context"

	"go.uber.org/zap"
)

// ReclaimExpired sweeps every seat whose lock expired before now back
// to AVAILABLE and returns the number of seats reclaimed.  The sweep
// is idempotent and safe to run concurrently with locking and
// finalization, which re-check expiry at use time regardless of when
// the reaper last ran; it exists so abandoned locks do not linger as
// LOCKED rows.
func (s *Service) ReclaimExpired(ctx context.Context) (int64, error) {
	count, err := s.store.ReclaimExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("expired locks reclaimed", zap.Int64("seats", count))
	}
	return count, nil
}
