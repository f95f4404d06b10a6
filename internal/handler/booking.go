package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/screenseat/booking/internal/booking"
	"github.com/screenseat/booking/internal/pricing"
	"github.com/screenseat/booking/internal/queue"
	"github.com/screenseat/booking/internal/repository"
)

// BookingHandler exposes the seat inventory over HTTP: seat maps,
// availability summaries, lock acquisition and release, booking
// finalization and booking history.  All domain decisions live in the
// booking service; the handler translates between HTTP and the
// service's types and errors.
type BookingHandler struct {
	Service     *booking.Service
	Calculator  *pricing.Calculator
	BookingRepo *repository.BookingRepo
	Publisher   *queue.Publisher
	Logger      *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.  The publisher may be
// nil when no broker is configured; confirmations are then not
// published but bookings still succeed.
func NewBookingHandler(svc *booking.Service, calc *pricing.Calculator, bookings *repository.BookingRepo, pub *queue.Publisher, logger *zap.Logger) *BookingHandler {
	if svc == nil || calc == nil || bookings == nil || logger == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{
		Service:     svc,
		Calculator:  calc,
		BookingRepo: bookings,
		Publisher:   pub,
		Logger:      logger,
	}
}

// SeatMap handles GET /v1/shows/:id/seats.  It returns every seat of
// the show with its effective status and the price the seat would
// cost right now.  Seats whose lock has lapsed appear AVAILABLE even
// if the reaper has not swept them yet.
func (h *BookingHandler) SeatMap(c echo.Context) error {
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	seats, err := h.Service.SeatMap(c.Request().Context(), showID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show_id": showID,
		"seats":   seats,
	})
}

// Availability handles GET /v1/shows/:id/availability.  It returns
// the number of effectively available seats per tier, treating
// expired locks as free.
func (h *BookingHandler) Availability(c echo.Context) error {
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	counts, err := h.Service.AvailabilityByTier(c.Request().Context(), showID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show_id":   showID,
		"available": counts,
	})
}

// PricingTiers handles GET /v1/pricing/tiers.  It describes the tier
// multipliers and format premiums used to quote seat prices, plus a
// human-readable explanation of the tier ladder.
func (h *BookingHandler) PricingTiers(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"multipliers_pct":       h.Calculator.TierMultipliersPct(),
		"format_premiums_cents": h.Calculator.FormatPremiumsCents(),
		"default_base_cents":    h.Calculator.DefaultBasesCents(),
		"explanation":           h.Calculator.ExplainTiers(),
	})
}

// LockSeats handles POST /v1/shows/:id/lock.  The body carries a
// "seat_ids" array.  On success every requested seat is locked for
// the caller and the response quotes each seat's price and the shared
// expiry.  If any seat cannot be taken, nothing is locked and the
// response names the offending seats.
func (h *BookingHandler) LockSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	locked, err := h.Service.LockSeats(c.Request().Context(), userID, showID, body.SeatIDs)
	if err != nil {
		return h.writeError(c, err)
	}
	var expiresAt string
	var total int64
	for _, s := range locked {
		total += s.PriceCents
		expiresAt = s.ExpiresAt.Format(time.RFC3339)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"seats":       locked,
		"total_cents": total,
		"expires_at":  expiresAt,
	})
}

// ReleaseSeats handles DELETE /v1/shows/:id/lock.  It releases every
// active lock the caller holds on the show and reports how many seats
// were freed.  Releasing when nothing is held is not an error.
func (h *BookingHandler) ReleaseSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	released, err := h.Service.ReleaseSeats(c.Request().Context(), userID, showID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}

// Book handles POST /v1/shows/:id/book.  The body names the locked
// seats and carries the payment proof.  On success the seats flip to
// BOOKED, a booking record is written in the same transaction, and a
// confirmation event is published for downstream receipt generation.
func (h *BookingHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
		Payment struct {
			CardBrand    string `json:"card_brand"`
			CardLastFour string `json:"card_last_four"`
		} `json:"payment"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	proof := booking.PaymentProof{
		CardBrand:    body.Payment.CardBrand,
		CardLastFour: body.Payment.CardLastFour,
	}
	conf, err := h.Service.Finalize(c.Request().Context(), userID, showID, body.SeatIDs, proof)
	if err != nil {
		return h.writeError(c, err)
	}

	h.publishConfirmation(conf)

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_ref":    conf.Booking.BookingRef,
		"total_cents":    conf.Booking.TotalCents,
		"payment_status": conf.Booking.PaymentStatus,
		"seats":          conf.Seats,
	})
}

// ListBookings handles GET /v1/my-bookings.  It returns the caller's
// bookings, newest first, with show and seat details joined in.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.BookingRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListUpcomingBookings handles GET /v1/my-bookings/upcoming.  Only
// bookings for shows that have not started yet are returned, soonest
// first.
func (h *BookingHandler) ListUpcomingBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.BookingRepo.ListUpcomingByUser(c.Request().Context(), userID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetBooking handles GET /v1/bookings/:ref.  It returns one booking
// by its reference.  Ownership is enforced in the repository query,
// so a booking belonging to another user reads as not found.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ref := c.Param("ref")
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking reference"})
	}
	detail, err := h.BookingRepo.GetByRefForUser(c.Request().Context(), ref, userID)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// publishConfirmation fires the booking.confirmed event.  Publishing
// happens after commit and off the request path; a broker outage must
// not fail a booking the database already accepted.
func (h *BookingHandler) publishConfirmation(conf *booking.Confirmation) {
	if h.Publisher == nil {
		return
	}
	labels := make([]string, 0, len(conf.Seats))
	for _, s := range conf.Seats {
		labels = append(labels, s.SeatLabel)
	}
	event := queue.BookingConfirmedEvent{
		BookingID:    conf.Booking.ID,
		BookingRef:   conf.Booking.BookingRef,
		UserID:       conf.Booking.UserID,
		ShowID:       conf.Booking.ShowID,
		MovieID:      conf.Booking.MovieID,
		TheaterID:    conf.Booking.TheaterID,
		SeatLabels:   labels,
		TotalCents:   conf.Booking.TotalCents,
		CardBrand:    conf.Booking.CardBrand,
		CardLastFour: conf.Booking.CardLastFour,
		ConfirmedAt:  conf.Booking.CreatedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.Publisher.PublishBookingConfirmed(ctx, event)
	}()
}

// writeError maps service errors onto HTTP responses.  Validation
// failures become 400, conflicts 409 with the offending seat ids,
// missing entities 404, and anything else a generic 500.
func (h *BookingHandler) writeError(c echo.Context, err error) error {
	var conflict *booking.SeatConflictError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    conflict.Reason,
			"seat_ids": conflict.SeatIDs,
		})
	case errors.Is(err, booking.ErrNoSeats),
		errors.Is(err, booking.ErrTooManySeats),
		errors.Is(err, booking.ErrInvalidPaymentProof):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrShowNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	case errors.Is(err, booking.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case errors.Is(err, booking.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found for this show"})
	default:
		h.Logger.Error("booking request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
