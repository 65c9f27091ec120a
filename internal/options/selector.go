package options

import (
	"math"
	"sort"

	apperrors "wheel-backtest/internal/errors"
	"wheel-backtest/internal/models"
)

// Band is an out-of-the-money percentage range, e.g. [0.07, 0.10].
type Band struct {
	Min float64
	Max float64
}

// Mid returns the band midpoint.
func (b Band) Mid() float64 {
	return 0.5 * (b.Min + b.Max)
}

// Contains reports whether an OTM distance falls inside the band.
func (b Band) Contains(otm float64) bool {
	return otm >= b.Min && otm <= b.Max
}

// OTMDistance is the fractional strike distance from spot in the
// out-of-the-money direction: downward for puts, upward for calls.
// In-the-money strikes yield negative distances.
func OTMDistance(spot, strike float64, typ models.OptionType) float64 {
	if typ == models.OptionPut {
		return (spot - strike) / spot
	}
	return (strike - spot) / spot
}

// Select picks the contract whose OTM distance is nearest the band midpoint.
// Contracts inside the band are preferred; when none falls inside, the single
// closest contract outside it is returned. Ties resolve by ascending strike.
// Callers are expected to pass contracts of a single type and expiration.
func Select(contracts []models.OptionContract, spot float64, typ models.OptionType, band Band) (models.OptionContract, error) {
	pool := make([]models.OptionContract, 0, len(contracts))
	for _, c := range contracts {
		if c.Type == typ {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 || spot <= 0 {
		return models.OptionContract{}, apperrors.ErrNoContract
	}

	sort.Slice(pool, func(i, j int) bool { return pool[i].Strike < pool[j].Strike })

	mid := band.Mid()
	best := -1
	bestInside := false
	bestDist := math.Inf(1)
	for i, c := range pool {
		otm := OTMDistance(spot, c.Strike, typ)
		inside := band.Contains(otm)
		dist := math.Abs(otm - mid)
		if inside && !bestInside {
			best, bestInside, bestDist = i, true, dist
			continue
		}
		if inside == bestInside && dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return pool[best], nil
}
