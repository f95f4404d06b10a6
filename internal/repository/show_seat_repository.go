package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/screenseat/booking/internal/booking"
	"github.com/screenseat/booking/internal/model"
)

// dbTimeLayout is the MySQL DATETIME format used for parameters.  All
// timestamps are stored and compared in UTC.
const dbTimeLayout = "2006-01-02 15:04:05"

// ShowSeatRepo provides data access to the show_seats table and the
// transactional seat-batch protocol that the booking engine relies
// on.  It implements booking.SeatStore.
type ShowSeatRepo struct {
	db *sql.DB
}

// NewShowSeatRepo returns a ShowSeatRepo bound to the given database.
func NewShowSeatRepo(db *sql.DB) *ShowSeatRepo { return &ShowSeatRepo{db: db} }

// DB exposes the underlying handle for callers that need to compose
// transactions spanning other repositories.
func (r *ShowSeatRepo) DB() *sql.DB { return r.db }

const seatColumns = `id, show_id, seat_label, row_label, tier, status, locked_by, locked_until, created_at, updated_at`

func scanSeat(scan func(dest ...interface{}) error) (model.ShowSeat, error) {
	var s model.ShowSeat
	var lockedBy sql.NullInt64
	var lockedUntil sql.NullTime
	err := scan(&s.ID, &s.ShowID, &s.SeatLabel, &s.RowLabel, &s.Tier, &s.Status,
		&lockedBy, &lockedUntil, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.ShowSeat{}, err
	}
	if lockedBy.Valid {
		uid := uint64(lockedBy.Int64)
		s.LockedBy = &uid
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time.UTC()
		s.LockedUntil = &t
	}
	return s, nil
}

// placeholders returns "?,?,...,?" with n placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(seatIDs []uint64) []interface{} {
	args := make([]interface{}, 0, len(seatIDs))
	for _, id := range seatIDs {
		args = append(args, id)
	}
	return args
}

// seatTx is the batch view handed to the engine callback.  All
// statements run on the transaction that holds the row locks.
type seatTx struct {
	ctx   context.Context
	tx    *sql.Tx
	seats []model.ShowSeat
}

func (t *seatTx) Seats() []model.ShowSeat { return t.seats }

func (t *seatTx) LockSeats(seatIDs []uint64, userID uint64, until time.Time) error {
	query := `UPDATE show_seats SET status = 'LOCKED', locked_by = ?, locked_until = ? WHERE id IN (` + placeholders(len(seatIDs)) + `)`
	args := append([]interface{}{userID, until.UTC().Format(dbTimeLayout)}, idArgs(seatIDs)...)
	_, err := t.tx.ExecContext(t.ctx, query, args...)
	return err
}

func (t *seatTx) BookSeats(seatIDs []uint64) error {
	query := `UPDATE show_seats SET status = 'BOOKED', locked_by = NULL, locked_until = NULL WHERE id IN (` + placeholders(len(seatIDs)) + `)`
	_, err := t.tx.ExecContext(t.ctx, query, idArgs(seatIDs)...)
	return err
}

func (t *seatTx) InsertBooking(b *model.Booking, seats []model.BookingSeat) error {
	const q = `INSERT INTO bookings (booking_ref, user_id, show_id, movie_id, theater_id, total_cents, payment_status, card_brand, card_last_four)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := t.tx.ExecContext(t.ctx, q, b.BookingRef, b.UserID, b.ShowID, b.MovieID, b.TheaterID,
		b.TotalCents, b.PaymentStatus, b.CardBrand, b.CardLastFour)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the row so the caller sees the DB-assigned timestamp.
	if err := t.tx.QueryRowContext(t.ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.CreatedAt); err != nil {
		return err
	}
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, seat_id, seat_label, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		seats[i].BookingID = b.ID
		args = append(args, b.ID, seats[i].SeatID, seats[i].SeatLabel, seats[i].PriceCents)
	}
	_, err = t.tx.ExecContext(t.ctx, query, args...)
	return err
}

// UpdateSeats runs fn inside a transaction that holds exclusive row
// locks (SELECT ... FOR UPDATE) on the named seats.  The ids are
// sorted ascending before acquisition so two requests over
// overlapping seat sets always take their locks in the same order and
// cannot deadlock.  Only the named rows are locked; requests on
// disjoint seat sets proceed in parallel.  The transaction commits
// only when fn returns nil.
func (r *ShowSeatRepo) UpdateSeats(ctx context.Context, showID uint64, seatIDs []uint64, fn func(tx booking.SeatTx) error) error {
	ids := make([]uint64, len(seatIDs))
	copy(ids, seatIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	query := `SELECT ` + seatColumns + ` FROM show_seats WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return err
	}
	var seats []model.ShowSeat
	for rows.Next() {
		s, scanErr := scanSeat(rows.Scan)
		if scanErr != nil {
			rows.Close()
			return scanErr
		}
		seats = append(seats, s)
	}
	if err = rows.Close(); err != nil {
		return err
	}

	if err := fn(&seatTx{ctx: ctx, tx: tx, seats: seats}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByShow returns every seat in the show's inventory ordered by
// row and label for deterministic seat maps.
func (r *ShowSeatRepo) ListByShow(ctx context.Context, showID uint64) ([]model.ShowSeat, error) {
	query := `SELECT ` + seatColumns + ` FROM show_seats WHERE show_id = ? ORDER BY row_label, id`
	rows, err := r.db.QueryContext(ctx, query, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.ShowSeat
	for rows.Next() {
		s, err := scanSeat(rows.Scan)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// CountAvailableByTier counts seats that are effectively available at
// the given instant: stored AVAILABLE, or LOCKED with an expiry in
// the past.  Availability is computed in the query rather than
// trusting the stored status, so the counts stay correct however far
// behind the reaper is.
func (r *ShowSeatRepo) CountAvailableByTier(ctx context.Context, showID uint64, now time.Time) (map[model.Tier]int, error) {
	const q = `SELECT tier, COUNT(*)
               FROM show_seats
               WHERE show_id = ?
                 AND (status = 'AVAILABLE' OR (status = 'LOCKED' AND locked_until <= ?))
               GROUP BY tier`
	rows, err := r.db.QueryContext(ctx, q, showID, now.UTC().Format(dbTimeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[model.Tier]int)
	for rows.Next() {
		var tier model.Tier
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, err
		}
		counts[tier] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// ReleaseUserLocks frees every unexpired lock the user holds on the
// show and returns the number of seats released.
func (r *ShowSeatRepo) ReleaseUserLocks(ctx context.Context, showID, userID uint64) (int64, error) {
	const q = `UPDATE show_seats
               SET status = 'AVAILABLE', locked_by = NULL, locked_until = NULL
               WHERE show_id = ? AND status = 'LOCKED' AND locked_by = ?`
	result, err := r.db.ExecContext(ctx, q, showID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ReclaimExpired returns every seat whose lock expired before now to
// the available pool.  A single UPDATE keeps the sweep atomic and
// idempotent across concurrent runs.
func (r *ShowSeatRepo) ReclaimExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE show_seats
               SET status = 'AVAILABLE', locked_by = NULL, locked_until = NULL
               WHERE status = 'LOCKED' AND locked_until <= ?`
	result, err := r.db.ExecContext(ctx, q, now.UTC().Format(dbTimeLayout))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CreateBulk provisions the seat inventory for a show in one
// statement.  It is used by catalog setup tooling when a show's seat
// map is first created; all seats start AVAILABLE.
func (r *ShowSeatRepo) CreateBulk(ctx context.Context, seats []model.ShowSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO show_seats (show_id, seat_label, row_label, tier, status) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.ShowID, s.SeatLabel, s.RowLabel, s.Tier, model.SeatAvailable)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
