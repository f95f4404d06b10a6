// Package router maps HTTP routes onto handlers and decides which
// middleware guards each group.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/screenseat/booking/internal/config"
	"github.com/screenseat/booking/internal/handler"
	"github.com/screenseat/booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated browse endpoints: the seat
// map, per-tier availability and the pricing tier explanation.  Seat
// maps and availability may be served from the Redis response cache;
// the few seconds of staleness is harmless because every lock and
// finalize re-checks availability under row locks.
func RegisterPublic(e *echo.Echo, h *handler.BookingHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	cached := middleware.NewResponseCache(cacheCfg, rdb)
	e.GET("/v1/shows/:id/seats", h.SeatMap, cached)
	e.GET("/v1/shows/:id/availability", h.Availability, cached)
	e.GET("/v1/pricing/tiers", h.PricingTiers)
}

// RegisterBuyer registers buyer-scoped endpoints under /v1.  All
// routes require a valid JWT issued by the identity service.  Lock
// and finalize requests are additionally rate limited per user, since
// they contend for row locks on the hottest rows in the database.
func RegisterBuyer(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.NewTokenBucket(rlCfg, rdb),
	)
	g.POST("/shows/:id/lock", h.LockSeats)
	g.DELETE("/shows/:id/lock", h.ReleaseSeats)
	g.POST("/shows/:id/book", h.Book)
	g.GET("/my-bookings", h.ListBookings)
	g.GET("/my-bookings/upcoming", h.ListUpcomingBookings)
	g.GET("/bookings/:ref", h.GetBooking)
}
