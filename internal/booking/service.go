package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screenseat/booking/internal/model"
	"github.com/screenseat/booking/internal/pricing"
)

// SeatTx is the view of a seat batch inside one exclusive inventory
// transaction.  The rows returned by Seats were selected with row
// locks held, in ascending seat-id order; mutations are applied
// atomically when the enclosing callback returns nil and discarded
// entirely otherwise.
type SeatTx interface {
	// Seats returns the locked rows, ascending by seat id.  Ids that
	// do not exist are simply absent.
	Seats() []model.ShowSeat
	// LockSeats marks the given seats LOCKED by the user until the
	// given instant.
	LockSeats(seatIDs []uint64, userID uint64, until time.Time) error
	// BookSeats marks the given seats BOOKED and clears their lock
	// columns.
	BookSeats(seatIDs []uint64) error
	// InsertBooking writes the booking row and its seat-price rows,
	// populating b.ID and b.CreatedAt.
	InsertBooking(b *model.Booking, seats []model.BookingSeat) error
}

// SeatStore is the transactional gateway to the seat inventory.  The
// MySQL implementation lives in internal/repository; tests substitute
// an in-memory store.
type SeatStore interface {
	// UpdateSeats runs fn inside a transaction holding exclusive row
	// locks on the named seats.  Implementations must acquire the
	// locks in ascending seat-id order so that requests over
	// overlapping seat sets cannot deadlock.  The scope of the locks
	// is exactly the named rows, never the whole show.
	UpdateSeats(ctx context.Context, showID uint64, seatIDs []uint64, fn func(tx SeatTx) error) error
	// ListByShow returns every seat of the show's inventory.
	ListByShow(ctx context.Context, showID uint64) ([]model.ShowSeat, error)
	// CountAvailableByTier returns per-tier counts of seats that are
	// effectively available at the given instant.
	CountAvailableByTier(ctx context.Context, showID uint64, now time.Time) (map[model.Tier]int, error)
	// ReleaseUserLocks clears all unexpired locks held by the user on
	// the show and returns how many seats were freed.
	ReleaseUserLocks(ctx context.Context, showID, userID uint64) (int64, error)
	// ReclaimExpired flips every seat whose lock expired before now
	// back to AVAILABLE and returns the number of rows changed.
	ReclaimExpired(ctx context.Context, now time.Time) (int64, error)
}

// ShowCatalog resolves the screening data needed for pricing.
type ShowCatalog interface {
	GetByID(ctx context.Context, id uint64) (*model.Show, error)
}

// MovieCatalog resolves per-movie pricing overrides.
type MovieCatalog interface {
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
}

// Config bounds the lock protocol.
type Config struct {
	// LockTTL is how long a seat lock lives before it silently
	// becomes reclaimable.
	LockTTL time.Duration
	// MaxSeatsPerOrder caps the seats in one lock or finalize request.
	MaxSeatsPerOrder int
}

// DefaultConfig returns the standard protocol limits: ten seats per
// order, ten-minute locks.
func DefaultConfig() Config {
	return Config{LockTTL: 10 * time.Minute, MaxSeatsPerOrder: 10}
}

// Service is the reservation engine.  It owns every seat state
// transition; nothing else in the system mutates inventory.
type Service struct {
	store  SeatStore
	shows  ShowCatalog
	movies MovieCatalog
	calc   *pricing.Calculator
	logger *zap.Logger
	cfg    Config
	now    func() time.Time
}

// NewService constructs the engine.  All dependencies must be
// non-nil.  Zero Config fields fall back to DefaultConfig values.
func NewService(store SeatStore, shows ShowCatalog, movies MovieCatalog, calc *pricing.Calculator, logger *zap.Logger, cfg Config) *Service {
	if store == nil || shows == nil || movies == nil || calc == nil || logger == nil {
		panic("nil dependency passed to booking.NewService")
	}
	def := DefaultConfig()
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = def.LockTTL
	}
	if cfg.MaxSeatsPerOrder <= 0 {
		cfg.MaxSeatsPerOrder = def.MaxSeatsPerOrder
	}
	return &Service{
		store:  store,
		shows:  shows,
		movies: movies,
		calc:   calc,
		logger: logger,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SeatView is one seat of a show's map with its effective status and
// quoted price, for client display.
type SeatView struct {
	SeatID     uint64           `json:"seat_id"`
	SeatLabel  string           `json:"seat_label"`
	RowLabel   string           `json:"row_label"`
	Tier       model.Tier       `json:"tier"`
	Status     model.SeatStatus `json:"status"`
	PriceCents int64            `json:"price_cents"`
}

// SeatMap returns every seat of the show with availability computed
// at read time and the price the seat would cost right now.
func (s *Service) SeatMap(ctx context.Context, showID uint64) ([]SeatView, error) {
	show, err := s.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	movie, err := s.movies.GetByID(ctx, show.MovieID)
	if err != nil {
		return nil, err
	}
	seats, err := s.store.ListByShow(ctx, showID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]SeatView, 0, len(seats))
	for _, seat := range seats {
		views = append(views, SeatView{
			SeatID:     seat.ID,
			SeatLabel:  seat.SeatLabel,
			RowLabel:   seat.RowLabel,
			Tier:       seat.Tier,
			Status:     seat.EffectiveStatus(now),
			PriceCents: s.calc.SeatPrice(show, seat.Tier, movie),
		})
	}
	return views, nil
}

// AvailabilityByTier returns how many seats of each tier are
// effectively available right now.
func (s *Service) AvailabilityByTier(ctx context.Context, showID uint64) (map[model.Tier]int, error) {
	if _, err := s.shows.GetByID(ctx, showID); err != nil {
		return nil, err
	}
	return s.store.CountAvailableByTier(ctx, showID, s.now())
}

// normalizeSeatIDs drops zero and duplicate ids while preserving the
// caller's order, then enforces the batch size limits.  It runs
// before any inventory access.
func (s *Service) normalizeSeatIDs(seatIDs []uint64) ([]uint64, error) {
	unique := make([]uint64, 0, len(seatIDs))
	seen := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, ErrNoSeats
	}
	if len(unique) > s.cfg.MaxSeatsPerOrder {
		return nil, ErrTooManySeats
	}
	return unique, nil
}

// checkSeatBatch verifies that the transaction saw every requested
// seat and that each belongs to the named show.
func checkSeatBatch(tx SeatTx, showID uint64, want int) error {
	seats := tx.Seats()
	if len(seats) != want {
		return ErrSeatNotFound
	}
	for i := range seats {
		if seats[i].ShowID != showID {
			return ErrSeatNotFound
		}
	}
	return nil
}

// newBookingRef generates a unique human-readable reference code.
func newBookingRef() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "BK-" + strings.ToUpper(raw[:12])
}
