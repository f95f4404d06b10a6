package pricing

import (
	"strings"
	"testing"
	"time"

	"github.com/screenseat/booking/internal/model"
)

func testShow(format model.Format, bases map[model.Tier]int64) *model.Show {
	return &model.Show{
		ID:             1,
		MovieID:        1,
		TheaterID:      1,
		ScreenName:     "Screen 1",
		Format:         format,
		Language:       "English",
		StartsAt:       time.Date(2026, 5, 1, 19, 30, 0, 0, time.UTC),
		BasePriceCents: bases,
	}
}

func TestSeatPriceDefaults(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	show := testShow(model.FormatIMAX3D, nil)

	// CLASSIC at IMAX 3D: 15000 * 100/100 + 20000.
	if got := calc.SeatPrice(show, model.TierClassic, nil); got != 35000 {
		t.Errorf("CLASSIC IMAX 3D price = %d, want 35000", got)
	}
	// VIP at IMAX 3D: 50000 * 200/100 + 20000.
	if got := calc.SeatPrice(show, model.TierVIP, nil); got != 120000 {
		t.Errorf("VIP IMAX 3D price = %d, want 120000", got)
	}
	// PRIME at Standard 2D: 25000 * 120/100 + 0.
	show2d := testShow(model.FormatStandard2D, nil)
	if got := calc.SeatPrice(show2d, model.TierPrime, nil); got != 30000 {
		t.Errorf("PRIME Standard 2D price = %d, want 30000", got)
	}
}

func TestSeatPriceShowBaseOverride(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	show := testShow(model.FormatStandard2D, map[model.Tier]int64{
		model.TierClassic: 20000,
	})

	if got := calc.SeatPrice(show, model.TierClassic, nil); got != 20000 {
		t.Errorf("overridden CLASSIC price = %d, want 20000", got)
	}
	// Tiers missing from the show table fall back to defaults.
	if got := calc.SeatPrice(show, model.TierPremium, nil); got != 52500 {
		t.Errorf("PREMIUM price = %d, want 52500", got)
	}
}

func TestSeatPriceMoviePremiumOverride(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	show := testShow(model.FormatFourDX, nil)
	movie := &model.Movie{
		ID:    1,
		Title: "Example",
		FormatPremiumCents: map[model.Format]int64{
			model.FormatFourDX: 30000,
		},
	}

	if got := calc.SeatPrice(show, model.TierClassic, movie); got != 45000 {
		t.Errorf("CLASSIC 4DX with movie premium = %d, want 45000", got)
	}
	// A movie without an entry for the show's format uses the default.
	other := &model.Movie{ID: 2, Title: "Other", FormatPremiumCents: map[model.Format]int64{}}
	if got := calc.SeatPrice(show, model.TierClassic, other); got != 40000 {
		t.Errorf("CLASSIC 4DX default premium = %d, want 40000", got)
	}
}

func TestSeatPriceUnknownTier(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	show := testShow(model.FormatStandard2D, map[model.Tier]int64{"BALCONY": 18000})

	// Unknown tiers multiply by 100 (1.0x).
	if got := calc.SeatPrice(show, "BALCONY", nil); got != 18000 {
		t.Errorf("unknown tier price = %d, want 18000", got)
	}
}

func TestSeatPriceDeterministic(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	show := testShow(model.FormatDolbyAtmos, nil)

	first := calc.SeatPrice(show, model.TierPremium, nil)
	for i := 0; i < 100; i++ {
		if got := calc.SeatPrice(show, model.TierPremium, nil); got != first {
			t.Fatalf("price changed between calls: %d then %d", first, got)
		}
	}
}

func TestTotalPrice(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	show := testShow(model.FormatIMAX3D, nil)

	counts := map[model.Tier]int{
		model.TierClassic: 2, // 2 * 35000
		model.TierVIP:     1, // 1 * 120000
	}
	if got := calc.TotalPrice(show, counts, nil); got != 190000 {
		t.Errorf("TotalPrice = %d, want 190000", got)
	}

	// The total must equal the sum of individual seat prices.
	var sum int64
	for tier, n := range counts {
		sum += calc.SeatPrice(show, tier, nil) * int64(n)
	}
	if got := calc.TotalPrice(show, counts, nil); got != sum {
		t.Errorf("TotalPrice = %d, want sum of seat prices %d", got, sum)
	}
}

func TestExplainTiersMentionsEveryTier(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	text := calc.ExplainTiers()
	for _, tier := range model.Tiers {
		if !strings.Contains(text, string(tier)) {
			t.Errorf("explanation does not mention tier %s", tier)
		}
	}
}
