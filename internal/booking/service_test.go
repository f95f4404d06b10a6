package booking

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/screenseat/booking/internal/model"
	"github.com/screenseat/booking/internal/pricing"
)

// memStore is an in-memory SeatStore.  A single mutex stands in for
// the database row locks: UpdateSeats holds it for the whole
// callback, and mutations are rolled back when the callback fails.
type memStore struct {
	mu            sync.Mutex
	seats         map[uint64]*model.ShowSeat
	bookings      []model.Booking
	bookingSeats  map[uint64][]model.BookingSeat
	nextBookingID uint64
	txCount       int
}

func newMemStore(seats ...model.ShowSeat) *memStore {
	st := &memStore{
		seats:        make(map[uint64]*model.ShowSeat),
		bookingSeats: make(map[uint64][]model.BookingSeat),
	}
	for _, s := range seats {
		seat := s
		st.seats[seat.ID] = &seat
	}
	return st
}

type memTx struct {
	store *memStore
	ids   []uint64
}

func (t *memTx) Seats() []model.ShowSeat {
	out := make([]model.ShowSeat, 0, len(t.ids))
	for _, id := range t.ids {
		if s, ok := t.store.seats[id]; ok {
			out = append(out, *s)
		}
	}
	return out
}

func (t *memTx) LockSeats(seatIDs []uint64, userID uint64, until time.Time) error {
	for _, id := range seatIDs {
		s := t.store.seats[id]
		uid := userID
		exp := until
		s.Status = model.SeatLocked
		s.LockedBy = &uid
		s.LockedUntil = &exp
	}
	return nil
}

func (t *memTx) BookSeats(seatIDs []uint64) error {
	for _, id := range seatIDs {
		s := t.store.seats[id]
		s.Status = model.SeatBooked
		s.LockedBy = nil
		s.LockedUntil = nil
	}
	return nil
}

func (t *memTx) InsertBooking(b *model.Booking, seats []model.BookingSeat) error {
	t.store.nextBookingID++
	b.ID = t.store.nextBookingID
	b.CreatedAt = time.Now().UTC()
	for i := range seats {
		seats[i].BookingID = b.ID
	}
	t.store.bookings = append(t.store.bookings, *b)
	t.store.bookingSeats[b.ID] = append([]model.BookingSeat(nil), seats...)
	return nil
}

func (st *memStore) UpdateSeats(ctx context.Context, showID uint64, seatIDs []uint64, fn func(tx SeatTx) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.txCount++

	ids := make([]uint64, len(seatIDs))
	copy(ids, seatIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// Snapshot for rollback.
	before := make(map[uint64]model.ShowSeat, len(st.seats))
	for id, s := range st.seats {
		before[id] = *s
	}
	nBookings := len(st.bookings)
	nextID := st.nextBookingID

	if err := fn(&memTx{store: st, ids: ids}); err != nil {
		for id := range st.seats {
			prev := before[id]
			*st.seats[id] = prev
		}
		st.bookings = st.bookings[:nBookings]
		for bid := range st.bookingSeats {
			if bid > nextID {
				delete(st.bookingSeats, bid)
			}
		}
		st.nextBookingID = nextID
		return err
	}
	return nil
}

func (st *memStore) ListByShow(ctx context.Context, showID uint64) ([]model.ShowSeat, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []model.ShowSeat
	for _, s := range st.seats {
		if s.ShowID == showID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (st *memStore) CountAvailableByTier(ctx context.Context, showID uint64, now time.Time) (map[model.Tier]int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	counts := make(map[model.Tier]int)
	for _, s := range st.seats {
		if s.ShowID == showID && s.EffectivelyAvailable(now) {
			counts[s.Tier]++
		}
	}
	return counts, nil
}

func (st *memStore) ReleaseUserLocks(ctx context.Context, showID, userID uint64) (int64, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	var n int64
	for _, s := range st.seats {
		if s.ShowID == showID && s.Status == model.SeatLocked && s.LockedBy != nil && *s.LockedBy == userID {
			s.Status = model.SeatAvailable
			s.LockedBy = nil
			s.LockedUntil = nil
			n++
		}
	}
	return n, nil
}

func (st *memStore) ReclaimExpired(ctx context.Context, now time.Time) (int64, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	var n int64
	for _, s := range st.seats {
		if s.Status == model.SeatLocked && s.LockedUntil != nil && !s.LockedUntil.After(now) {
			s.Status = model.SeatAvailable
			s.LockedBy = nil
			s.LockedUntil = nil
			n++
		}
	}
	return n, nil
}

func (st *memStore) seat(id uint64) model.ShowSeat {
	st.mu.Lock()
	defer st.mu.Unlock()
	return *st.seats[id]
}

type memShows struct{ shows map[uint64]*model.Show }

func (c *memShows) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	if s, ok := c.shows[id]; ok {
		return s, nil
	}
	return nil, ErrShowNotFound
}

type memMovies struct{ movies map[uint64]*model.Movie }

func (c *memMovies) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	if m, ok := c.movies[id]; ok {
		return m, nil
	}
	return nil, ErrMovieNotFound
}

const (
	testShowID  = uint64(1)
	testMovieID = uint64(5)
	buyer       = uint64(100)
	rival       = uint64(200)
)

func seat(id uint64, label, row string, tier model.Tier) model.ShowSeat {
	return model.ShowSeat{ID: id, ShowID: testShowID, SeatLabel: label, RowLabel: row, Tier: tier, Status: model.SeatAvailable}
}

// newTestService wires the engine over an in-memory store with a
// fixed clock.  The show is an IMAX 3D screening with default bases,
// so a CLASSIC seat prices at 35000 cents.
func newTestService(t *testing.T, seats ...model.ShowSeat) (*Service, *memStore, *time.Time) {
	t.Helper()
	store := newMemStore(seats...)
	shows := &memShows{shows: map[uint64]*model.Show{
		testShowID: {
			ID:        testShowID,
			MovieID:   testMovieID,
			TheaterID: 9,
			Format:    model.FormatIMAX3D,
			StartsAt:  time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC),
		},
	}}
	movies := &memMovies{movies: map[uint64]*model.Movie{
		testMovieID: {ID: testMovieID, Title: "Test Feature"},
	}}
	svc := NewService(store, shows, movies, pricing.NewCalculator(pricing.DefaultConfig()), zap.NewNop(), Config{})
	now := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	clock := &now
	svc.now = func() time.Time { return *clock }
	return svc, store, clock
}

func TestLockSeats(t *testing.T) {
	svc, store, clock := newTestService(t,
		seat(1, "A1", "A", model.TierClassic),
		seat(2, "A2", "A", model.TierClassic),
	)

	locked, err := svc.LockSeats(context.Background(), buyer, testShowID, []uint64{1, 2})
	if err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	if len(locked) != 2 {
		t.Fatalf("locked %d seats, want 2", len(locked))
	}
	wantExpiry := clock.Add(10 * time.Minute)
	for _, ls := range locked {
		if ls.PriceCents != 35000 {
			t.Errorf("seat %d quoted %d cents, want 35000", ls.SeatID, ls.PriceCents)
		}
		if !ls.ExpiresAt.Equal(wantExpiry) {
			t.Errorf("seat %d expires at %v, want %v", ls.SeatID, ls.ExpiresAt, wantExpiry)
		}
	}
	for _, id := range []uint64{1, 2} {
		s := store.seat(id)
		if s.Status != model.SeatLocked {
			t.Errorf("seat %d status %s, want LOCKED", id, s.Status)
		}
		if s.LockedBy == nil || *s.LockedBy != buyer {
			t.Errorf("seat %d not held by buyer", id)
		}
	}
}

func TestLockSeatsDeduplicates(t *testing.T) {
	svc, _, _ := newTestService(t, seat(1, "A1", "A", model.TierClassic))

	locked, err := svc.LockSeats(context.Background(), buyer, testShowID, []uint64{1, 1, 0, 1})
	if err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	if len(locked) != 1 {
		t.Fatalf("locked %d seats, want 1 after dedupe", len(locked))
	}
}

func TestLockSeatsAllOrNothing(t *testing.T) {
	held := rival
	future := time.Date(2026, 6, 1, 18, 5, 0, 0, time.UTC)
	blocked := seat(2, "A2", "A", model.TierClassic)
	blocked.Status = model.SeatLocked
	blocked.LockedBy = &held
	blocked.LockedUntil = &future

	svc, store, _ := newTestService(t, seat(1, "A1", "A", model.TierClassic), blocked)

	_, err := svc.LockSeats(context.Background(), buyer, testShowID, []uint64{1, 2})
	var conflict *SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("LockSeats error = %v, want SeatConflictError", err)
	}
	if conflict.Reason != ConflictUnavailable {
		t.Errorf("conflict reason %q, want %q", conflict.Reason, ConflictUnavailable)
	}
	if len(conflict.SeatIDs) != 1 || conflict.SeatIDs[0] != 2 {
		t.Errorf("conflict names seats %v, want [2]", conflict.SeatIDs)
	}
	// The available seat must remain untouched.
	if s := store.seat(1); s.Status != model.SeatAvailable {
		t.Errorf("seat 1 status %s after failed batch, want AVAILABLE", s.Status)
	}
}

func TestLockSeatsBatchLimits(t *testing.T) {
	svc, store, _ := newTestService(t, seat(1, "A1", "A", model.TierClassic))

	if _, err := svc.LockSeats(context.Background(), buyer, testShowID, nil); !errors.Is(err, ErrNoSeats) {
		t.Errorf("empty request error = %v, want ErrNoSeats", err)
	}

	ids := make([]uint64, 11)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}
	if _, err := svc.LockSeats(context.Background(), buyer, testShowID, ids); !errors.Is(err, ErrTooManySeats) {
		t.Errorf("oversized request error = %v, want ErrTooManySeats", err)
	}
	if store.txCount != 0 {
		t.Errorf("inventory touched %d times by invalid requests, want 0", store.txCount)
	}
}

func TestLockSeatsUnknownSeat(t *testing.T) {
	svc, _, _ := newTestService(t, seat(1, "A1", "A", model.TierClassic))

	if _, err := svc.LockSeats(context.Background(), buyer, testShowID, []uint64{1, 999}); !errors.Is(err, ErrSeatNotFound) {
		t.Errorf("unknown seat error = %v, want ErrSeatNotFound", err)
	}
}

func TestLockSeatsClaimsExpiredForeignLock(t *testing.T) {
	svc, store, clock := newTestService(t, seat(1, "A1", "A", model.TierClassic))

	if _, err := svc.LockSeats(context.Background(), rival, testShowID, []uint64{1}); err != nil {
		t.Fatalf("rival LockSeats: %v", err)
	}
	// Past the rival's expiry the seat is claimable without a sweep.
	*clock = clock.Add(11 * time.Minute)
	if _, err := svc.LockSeats(context.Background(), buyer, testShowID, []uint64{1}); err != nil {
		t.Fatalf("LockSeats over expired lock: %v", err)
	}
	s := store.seat(1)
	if s.LockedBy == nil || *s.LockedBy != buyer {
		t.Errorf("seat 1 held by %v, want buyer", s.LockedBy)
	}
}

func TestConcurrentLockSingleWinner(t *testing.T) {
	svc, _, _ := newTestService(t, seat(1, "A1", "A", model.TierClassic))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []uint64{buyer, rival} {
		wg.Add(1)
		go func(i int, uid uint64) {
			defer wg.Done()
			_, errs[i] = svc.LockSeats(context.Background(), uid, testShowID, []uint64{1})
		}(i, uid)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var conflict *SeatConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("loser error = %v, want SeatConflictError", err)
		}
	}
	if winners != 1 {
		t.Fatalf("%d lock winners, want exactly 1", winners)
	}
}

func TestFinalize(t *testing.T) {
	svc, store, _ := newTestService(t,
		seat(1, "A1", "A", model.TierClassic),
		seat(2, "A2", "A", model.TierClassic),
	)
	ctx := context.Background()

	if _, err := svc.LockSeats(ctx, buyer, testShowID, []uint64{1, 2}); err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	proof := PaymentProof{CardBrand: "VISA", CardLastFour: "4242"}
	conf, err := svc.Finalize(ctx, buyer, testShowID, []uint64{1, 2}, proof)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if conf.Booking.TotalCents != 70000 {
		t.Errorf("total %d cents, want 70000", conf.Booking.TotalCents)
	}
	if !strings.HasPrefix(conf.Booking.BookingRef, "BK-") {
		t.Errorf("booking ref %q lacks BK- prefix", conf.Booking.BookingRef)
	}
	if conf.Booking.PaymentStatus != model.PaymentCompleted {
		t.Errorf("payment status %s, want COMPLETED", conf.Booking.PaymentStatus)
	}
	for _, id := range []uint64{1, 2} {
		s := store.seat(id)
		if s.Status != model.SeatBooked {
			t.Errorf("seat %d status %s, want BOOKED", id, s.Status)
		}
		if s.LockedBy != nil || s.LockedUntil != nil {
			t.Errorf("seat %d retains lock columns after booking", id)
		}
	}
	if len(store.bookings) != 1 {
		t.Fatalf("%d bookings written, want 1", len(store.bookings))
	}
	if got := len(store.bookingSeats[conf.Booking.ID]); got != 2 {
		t.Errorf("%d booking seats written, want 2", got)
	}
}

func TestFinalizeRejectsExpiredLock(t *testing.T) {
	svc, store, clock := newTestService(t, seat(1, "A1", "A", model.TierClassic))
	ctx := context.Background()

	if _, err := svc.LockSeats(ctx, buyer, testShowID, []uint64{1}); err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	*clock = clock.Add(11 * time.Minute)

	proof := PaymentProof{CardBrand: "VISA", CardLastFour: "4242"}
	_, err := svc.Finalize(ctx, buyer, testShowID, []uint64{1}, proof)
	var conflict *SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Finalize error = %v, want SeatConflictError", err)
	}
	if conflict.Reason != ConflictLockExpired {
		t.Errorf("conflict reason %q, want %q", conflict.Reason, ConflictLockExpired)
	}
	if s := store.seat(1); s.Status == model.SeatBooked {
		t.Error("seat booked despite expired lock")
	}
	if len(store.bookings) != 0 {
		t.Errorf("%d bookings written after failed finalize, want 0", len(store.bookings))
	}
}

func TestFinalizeRejectsForeignLock(t *testing.T) {
	svc, store, _ := newTestService(t, seat(1, "A1", "A", model.TierClassic))
	ctx := context.Background()

	if _, err := svc.LockSeats(ctx, rival, testShowID, []uint64{1}); err != nil {
		t.Fatalf("rival LockSeats: %v", err)
	}
	proof := PaymentProof{CardBrand: "VISA", CardLastFour: "4242"}
	_, err := svc.Finalize(ctx, buyer, testShowID, []uint64{1}, proof)
	var conflict *SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Finalize error = %v, want SeatConflictError", err)
	}
	if conflict.Reason != ConflictNotHolder {
		t.Errorf("conflict reason %q, want %q", conflict.Reason, ConflictNotHolder)
	}
	if s := store.seat(1); s.LockedBy == nil || *s.LockedBy != rival {
		t.Error("rival's lock disturbed by failed finalize")
	}
}

func TestFinalizeRequiresPaymentProof(t *testing.T) {
	svc, _, _ := newTestService(t, seat(1, "A1", "A", model.TierClassic))
	ctx := context.Background()

	if _, err := svc.LockSeats(ctx, buyer, testShowID, []uint64{1}); err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	if _, err := svc.Finalize(ctx, buyer, testShowID, []uint64{1}, PaymentProof{}); !errors.Is(err, ErrInvalidPaymentProof) {
		t.Errorf("Finalize error = %v, want ErrInvalidPaymentProof", err)
	}
}

func TestBookedSeatIsTerminal(t *testing.T) {
	svc, _, clock := newTestService(t, seat(1, "A1", "A", model.TierClassic))
	ctx := context.Background()

	if _, err := svc.LockSeats(ctx, buyer, testShowID, []uint64{1}); err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	proof := PaymentProof{CardBrand: "MASTERCARD", CardLastFour: "1111"}
	if _, err := svc.Finalize(ctx, buyer, testShowID, []uint64{1}, proof); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// No amount of elapsed time makes a booked seat claimable.
	*clock = clock.Add(24 * time.Hour)
	_, err := svc.LockSeats(ctx, rival, testShowID, []uint64{1})
	var conflict *SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("LockSeats on booked seat error = %v, want SeatConflictError", err)
	}
}

func TestReleaseSeats(t *testing.T) {
	svc, store, _ := newTestService(t,
		seat(1, "A1", "A", model.TierClassic),
		seat(2, "A2", "A", model.TierClassic),
	)
	ctx := context.Background()

	if _, err := svc.LockSeats(ctx, buyer, testShowID, []uint64{1, 2}); err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	released, err := svc.ReleaseSeats(ctx, buyer, testShowID)
	if err != nil {
		t.Fatalf("ReleaseSeats: %v", err)
	}
	if released != 2 {
		t.Errorf("released %d seats, want 2", released)
	}
	if s := store.seat(1); s.Status != model.SeatAvailable {
		t.Errorf("seat 1 status %s after release, want AVAILABLE", s.Status)
	}

	// Releasing again is a no-op, not an error.
	released, err = svc.ReleaseSeats(ctx, buyer, testShowID)
	if err != nil || released != 0 {
		t.Errorf("second release = (%d, %v), want (0, nil)", released, err)
	}
}

func TestReclaimExpired(t *testing.T) {
	svc, store, clock := newTestService(t,
		seat(1, "A1", "A", model.TierClassic),
		seat(2, "A2", "A", model.TierClassic),
	)
	ctx := context.Background()

	if _, err := svc.LockSeats(ctx, buyer, testShowID, []uint64{1}); err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	*clock = clock.Add(5 * time.Minute)
	if _, err := svc.LockSeats(ctx, rival, testShowID, []uint64{2}); err != nil {
		t.Fatalf("rival LockSeats: %v", err)
	}

	// Only the first lock has expired at +11 minutes.
	*clock = clock.Add(6 * time.Minute)
	n, err := svc.ReclaimExpired(ctx)
	if err != nil {
		t.Fatalf("ReclaimExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("reclaimed %d seats, want 1", n)
	}
	if s := store.seat(1); s.Status != model.SeatAvailable {
		t.Errorf("seat 1 status %s after sweep, want AVAILABLE", s.Status)
	}
	if s := store.seat(2); s.Status != model.SeatLocked {
		t.Errorf("seat 2 status %s after sweep, want LOCKED", s.Status)
	}

	// The sweep is idempotent.
	n, err = svc.ReclaimExpired(ctx)
	if err != nil || n != 0 {
		t.Errorf("second sweep = (%d, %v), want (0, nil)", n, err)
	}
}

func TestAvailabilityByTier(t *testing.T) {
	svc, _, clock := newTestService(t,
		seat(1, "A1", "A", model.TierClassic),
		seat(2, "A2", "A", model.TierClassic),
		seat(3, "B1", "B", model.TierVIP),
	)
	ctx := context.Background()

	if _, err := svc.LockSeats(ctx, buyer, testShowID, []uint64{1}); err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	counts, err := svc.AvailabilityByTier(ctx, testShowID)
	if err != nil {
		t.Fatalf("AvailabilityByTier: %v", err)
	}
	if counts[model.TierClassic] != 1 || counts[model.TierVIP] != 1 {
		t.Errorf("counts = %v, want CLASSIC:1 VIP:1", counts)
	}

	// After expiry the locked seat counts as available again.
	*clock = clock.Add(11 * time.Minute)
	counts, err = svc.AvailabilityByTier(ctx, testShowID)
	if err != nil {
		t.Fatalf("AvailabilityByTier: %v", err)
	}
	if counts[model.TierClassic] != 2 {
		t.Errorf("CLASSIC count = %d after expiry, want 2", counts[model.TierClassic])
	}
}

func TestSeatMap(t *testing.T) {
	svc, _, clock := newTestService(t,
		seat(1, "A1", "A", model.TierClassic),
		seat(2, "B1", "B", model.TierVIP),
	)
	ctx := context.Background()

	if _, err := svc.LockSeats(ctx, buyer, testShowID, []uint64{1}); err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	views, err := svc.SeatMap(ctx, testShowID)
	if err != nil {
		t.Fatalf("SeatMap: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("seat map has %d seats, want 2", len(views))
	}
	byID := make(map[uint64]SeatView)
	for _, v := range views {
		byID[v.SeatID] = v
	}
	if byID[1].Status != model.SeatLocked {
		t.Errorf("seat 1 status %s, want LOCKED", byID[1].Status)
	}
	if byID[2].Status != model.SeatAvailable {
		t.Errorf("seat 2 status %s, want AVAILABLE", byID[2].Status)
	}
	// IMAX 3D quotes: CLASSIC 35000, VIP 120000.
	if byID[1].PriceCents != 35000 || byID[2].PriceCents != 120000 {
		t.Errorf("prices = %d/%d, want 35000/120000", byID[1].PriceCents, byID[2].PriceCents)
	}

	// Past the lock expiry the map reports the seat available even
	// though the stored status is still LOCKED.
	*clock = clock.Add(11 * time.Minute)
	views, err = svc.SeatMap(ctx, testShowID)
	if err != nil {
		t.Fatalf("SeatMap: %v", err)
	}
	for _, v := range views {
		if v.SeatID == 1 && v.Status != model.SeatAvailable {
			t.Errorf("seat 1 status %s after expiry, want AVAILABLE", v.Status)
		}
	}
}

func TestUnknownShow(t *testing.T) {
	svc, _, _ := newTestService(t, seat(1, "A1", "A", model.TierClassic))

	if _, err := svc.SeatMap(context.Background(), 999); !errors.Is(err, ErrShowNotFound) {
		t.Errorf("SeatMap unknown show error = %v, want ErrShowNotFound", err)
	}
	if _, err := svc.LockSeats(context.Background(), buyer, 999, []uint64{1}); !errors.Is(err, ErrShowNotFound) {
		t.Errorf("LockSeats unknown show error = %v, want ErrShowNotFound", err)
	}
}
