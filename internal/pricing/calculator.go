// Package pricing implements the seat price calculation:
//
//	price = basePrice(show, tier) × tierMultiplier(tier) + formatPremium(format, movie)
//
// All amounts are integer cents and multipliers are integer percents,
// so repeated summation is exact and reproducible.  The calculator
// holds only immutable tables injected at construction and performs
// no I/O.
package pricing

import (
	"fmt"

	"github.com/screenseat/booking/internal/model"
)

// Config carries the fixed pricing tables.  The tables are treated as
// immutable after construction; callers must not modify them.
type Config struct {
	// TierMultiplierPct maps a tier to its multiplier in percent
	// (100 = 1.0x).  Tiers absent from the table multiply by 100.
	TierMultiplierPct map[model.Tier]int64
	// DefaultBaseCents is the fallback per-tier base price used when a
	// show does not define its own base price for the tier.
	DefaultBaseCents map[model.Tier]int64
	// DefaultFormatPremiumCents is the fallback per-format premium
	// used when a movie does not override it.  Formats absent from the
	// table add nothing.
	DefaultFormatPremiumCents map[model.Format]int64
}

// DefaultConfig returns the standard pricing tables.  Amounts are in
// cents of the house currency.
func DefaultConfig() Config {
	return Config{
		TierMultiplierPct: map[model.Tier]int64{
			model.TierClassic: 100,
			model.TierPrime:   120,
			model.TierPremium: 150,
			model.TierVIP:     200,
		},
		DefaultBaseCents: map[model.Tier]int64{
			model.TierClassic: 15000,
			model.TierPrime:   25000,
			model.TierPremium: 35000,
			model.TierVIP:     50000,
		},
		DefaultFormatPremiumCents: map[model.Format]int64{
			model.FormatStandard2D: 0,
			model.FormatStandard3D: 5000,
			model.FormatIMAX2D:     15000,
			model.FormatIMAX3D:     20000,
			model.FormatFourDX:     25000,
			model.FormatDolbyAtmos: 10000,
		},
	}
}

// Calculator computes seat prices from immutable tables.  It is safe
// for concurrent use.
type Calculator struct {
	cfg Config
}

// NewCalculator returns a Calculator over the given tables.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// SeatPrice returns the price in cents for one seat of the given tier
// at the given show.  The movie may be nil when no override table is
// available; defaults then apply.
func (c *Calculator) SeatPrice(show *model.Show, tier model.Tier, movie *model.Movie) int64 {
	base := c.basePrice(show, tier)
	pct := c.TierMultiplierPct(tier)
	premium := c.formatPremium(show.Format, movie)
	return base*pct/100 + premium
}

// TotalPrice returns the summed price in cents for the given seat
// counts per tier.  It equals the sum of SeatPrice over each seat.
func (c *Calculator) TotalPrice(show *model.Show, countsByTier map[model.Tier]int, movie *model.Movie) int64 {
	var total int64
	for tier, n := range countsByTier {
		total += c.SeatPrice(show, tier, movie) * int64(n)
	}
	return total
}

// TierMultiplierPct returns the multiplier for a tier in percent.
// Unknown tiers multiply by 100 (1.0x).
func (c *Calculator) TierMultiplierPct(tier model.Tier) int64 {
	if pct, ok := c.cfg.TierMultiplierPct[tier]; ok {
		return pct
	}
	return 100
}

// DefaultFormatPremiumCents returns the configured default premium
// for a format, for display purposes.
func (c *Calculator) DefaultFormatPremiumCents(format model.Format) int64 {
	return c.cfg.DefaultFormatPremiumCents[format]
}

// TierMultipliersPct returns a copy of the tier multiplier table.
func (c *Calculator) TierMultipliersPct() map[model.Tier]int64 {
	out := make(map[model.Tier]int64, len(c.cfg.TierMultiplierPct))
	for k, v := range c.cfg.TierMultiplierPct {
		out[k] = v
	}
	return out
}

// DefaultBasesCents returns a copy of the default base price table.
func (c *Calculator) DefaultBasesCents() map[model.Tier]int64 {
	out := make(map[model.Tier]int64, len(c.cfg.DefaultBaseCents))
	for k, v := range c.cfg.DefaultBaseCents {
		out[k] = v
	}
	return out
}

// FormatPremiumsCents returns a copy of the default format premium
// table.
func (c *Calculator) FormatPremiumsCents() map[model.Format]int64 {
	out := make(map[model.Format]int64, len(c.cfg.DefaultFormatPremiumCents))
	for k, v := range c.cfg.DefaultFormatPremiumCents {
		out[k] = v
	}
	return out
}

func (c *Calculator) basePrice(show *model.Show, tier model.Tier) int64 {
	if show.BasePriceCents != nil {
		if base, ok := show.BasePriceCents[tier]; ok {
			return base
		}
	}
	return c.cfg.DefaultBaseCents[tier]
}

func (c *Calculator) formatPremium(format model.Format, movie *model.Movie) int64 {
	if movie != nil && movie.FormatPremiumCents != nil {
		if p, ok := movie.FormatPremiumCents[format]; ok {
			return p
		}
	}
	return c.cfg.DefaultFormatPremiumCents[format]
}

// ExplainTiers returns a static description of tier semantics and the
// default format premiums.  It is informational only and plays no
// part in the calculation.
func (c *Calculator) ExplainTiers() string {
	return fmt.Sprintf(`Seat tier differences:

CLASSIC (%.1fx) - basic comfortable seating, best value for money
PRIME   (%.1fx) - better viewing angle, middle section of the theater
PREMIUM (%.1fx) - wider seats, optimal sound and visual experience
VIP     (%.1fx) - luxury recliners, best seats in the house

Format premiums (defaults, per seat):
IMAX 2D +%d, IMAX 3D +%d, 4DX +%d, Standard 3D +%d, Dolby Atmos +%d`,
		float64(c.TierMultiplierPct(model.TierClassic))/100,
		float64(c.TierMultiplierPct(model.TierPrime))/100,
		float64(c.TierMultiplierPct(model.TierPremium))/100,
		float64(c.TierMultiplierPct(model.TierVIP))/100,
		c.cfg.DefaultFormatPremiumCents[model.FormatIMAX2D]/100,
		c.cfg.DefaultFormatPremiumCents[model.FormatIMAX3D]/100,
		c.cfg.DefaultFormatPremiumCents[model.FormatFourDX]/100,
		c.cfg.DefaultFormatPremiumCents[model.FormatStandard3D]/100,
		c.cfg.DefaultFormatPremiumCents[model.FormatDolbyAtmos]/100)
}
