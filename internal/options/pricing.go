// Package options provides option pricing math and contract selection.
package options

import (
	"math"

	"wheel-backtest/internal/models"
)

// Solver bounds and convergence limits for implied volatility.
const (
	ivLow    = 1e-4
	ivHigh   = 5.0
	ivTol    = 1e-4 // absolute price tolerance
	ivMaxIts = 100
)

func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// Price returns the Black-Scholes value of a European option.
// Degenerate inputs (non-positive time, vol, spot, or strike) collapse to
// intrinsic value.
func Price(spot, strike, timeYears, rate, sigma float64, typ models.OptionType) float64 {
	if timeYears <= 0 || sigma <= 0 || spot <= 0 || strike <= 0 {
		if typ == models.OptionPut {
			return math.Max(0, strike-spot)
		}
		return math.Max(0, spot-strike)
	}
	volTerm := sigma * math.Sqrt(timeYears)
	d1 := (math.Log(spot/strike) + (rate+0.5*sigma*sigma)*timeYears) / volTerm
	d2 := d1 - volTerm
	if typ == models.OptionPut {
		return strike*math.Exp(-rate*timeYears)*normCDF(-d2) - spot*normCDF(-d1)
	}
	return spot*normCDF(d1) - strike*math.Exp(-rate*timeYears)*normCDF(d2)
}

// ImpliedVol recovers the annualized volatility that reproduces the observed
// premium, by bisection on Price. It returns ok=false when the premium is
// outside the model's feasible range (no root to bracket); callers treat that
// as missing data, not a failure.
func ImpliedVol(premium, spot, strike, timeYears, rate float64, typ models.OptionType) (float64, bool) {
	if premium <= 0 || timeYears <= 0 || spot <= 0 || strike <= 0 {
		return 0, false
	}
	low, high := ivLow, ivHigh
	priceLow := Price(spot, strike, timeYears, rate, low, typ)
	priceHigh := Price(spot, strike, timeYears, rate, high, typ)
	if premium < priceLow || premium > priceHigh {
		return 0, false
	}
	for i := 0; i < ivMaxIts; i++ {
		mid := 0.5 * (low + high)
		priceMid := Price(spot, strike, timeYears, rate, mid, typ)
		if math.Abs(priceMid-premium) < ivTol {
			return mid, true
		}
		if priceMid > premium {
			high = mid
		} else {
			low = mid
		}
	}
	// The bracket is tight after the iteration cap; the midpoint is as good
	// an estimate as the tolerance allows.
	return 0.5 * (low + high), true
}

// Estimate returns the implied volatility for a quoted premium, preferring
// the provider-reported value and falling back to the solver. The returned
// source records which path was taken.
func Estimate(quote models.OptionQuote, spot, strike, timeYears, rate float64, typ models.OptionType) (float64, models.IVSource) {
	if quote.HasImpliedVol {
		return quote.ImpliedVol, models.IVProvider
	}
	if iv, ok := ImpliedVol(quote.Close, spot, strike, timeYears, rate, typ); ok {
		return iv, models.IVModel
	}
	return 0, models.IVUnavailable
}
