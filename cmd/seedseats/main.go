// Command seedseats provisions the seat inventory for a show.  It
// generates rows A..N with the given seats per row, assigns tiers
// front-to-back (CLASSIC rows first, then PRIME, PREMIUM and a VIP
// back row) and inserts the whole map in one statement.  Intended for
// local development and new-show setup.
//
// Usage:
//
//	seedseats -show 1 -rows 8 -cols 10
package main

import (
	"context"
	"flag"
	"log"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/screenseat/booking/internal/config"
	"github.com/screenseat/booking/internal/database"
	"github.com/screenseat/booking/internal/model"
	"github.com/screenseat/booking/internal/repository"
)

func main() {
	showID := flag.Uint64("show", 0, "show id to provision seats for")
	rows := flag.Int("rows", 8, "number of seat rows")
	cols := flag.Int("cols", 10, "seats per row")
	flag.Parse()

	if *showID == 0 {
		log.Fatal("missing required -show flag")
	}
	if *rows < 1 || *rows > 26 || *cols < 1 {
		log.Fatalf("invalid layout: rows=%d cols=%d", *rows, *cols)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	seats := buildSeatMap(*showID, *rows, *cols)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repository.NewShowSeatRepo(db).CreateBulk(ctx, seats); err != nil {
		log.Fatalf("seat provisioning failed: %v", err)
	}
	log.Printf("provisioned %d seats for show %d", len(seats), *showID)
}

// buildSeatMap lays tiers front-to-back: the front half CLASSIC, then
// PRIME, then PREMIUM, with the last row VIP.
func buildSeatMap(showID uint64, rows, cols int) []model.ShowSeat {
	seats := make([]model.ShowSeat, 0, rows*cols)
	for r := 0; r < rows; r++ {
		row := string(rune('A' + r))
		tier := tierForRow(r, rows)
		for c := 1; c <= cols; c++ {
			seats = append(seats, model.ShowSeat{
				ShowID:    showID,
				SeatLabel: row + strconv.Itoa(c),
				RowLabel:  row,
				Tier:      tier,
			})
		}
	}
	return seats
}

func tierForRow(r, rows int) model.Tier {
	switch {
	case r == rows-1 && rows > 3:
		return model.TierVIP
	case r >= (rows*3)/4:
		return model.TierPremium
	case r >= rows/2:
		return model.TierPrime
	default:
		return model.TierClassic
	}
}
