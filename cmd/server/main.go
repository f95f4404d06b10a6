package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/screenseat/booking/internal/booking"
	"github.com/screenseat/booking/internal/config"
	"github.com/screenseat/booking/internal/database"
	"github.com/screenseat/booking/internal/handler"
	"github.com/screenseat/booking/internal/pricing"
	"github.com/screenseat/booking/internal/queue"
	"github.com/screenseat/booking/internal/repository"
	"github.com/screenseat/booking/internal/router"
	"github.com/screenseat/booking/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting and response caching disabled")
	}

	seatStore := repository.NewShowSeatRepo(db)
	showRepo := repository.NewShowRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	calc := pricing.NewCalculator(pricing.DefaultConfig())
	svc := booking.NewService(seatStore, showRepo, movieRepo, calc, logger, booking.Config{
		LockTTL:          cfg.LockTTL,
		MaxSeatsPerOrder: cfg.MaxSeatsPerOrder,
	})

	pub := queue.NewPublisher(cfg.AMQPURL, logger)
	go queue.StartReceiptConsumer(cfg.AMQPURL, logger)

	if rdb != nil {
		w := worker.New(config.RedisAddr(), svc, cfg.ReaperInterval, logger)
		go func() {
			if err := w.Run(); err != nil {
				logger.Error("background worker stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("redis unavailable, periodic lock reclaim disabled")
	}

	h := handler.NewBookingHandler(svc, calc, bookingRepo, pub, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e)
	router.RegisterPublic(e, h, config.LoadCacheConfig(), rdb)
	router.RegisterBuyer(e, h, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// newLogger builds the process logger.  Production gets sampled JSON,
// anything else a human-friendly development config.
func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" || env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
