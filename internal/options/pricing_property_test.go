package options

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"wheel-backtest/internal/models"
)

// Property: pricing an option at a known volatility and solving the premium
// back recovers that volatility. Inputs are kept in a moderate-moneyness range
// where the premium is meaningfully sensitive to volatility; outside it the
// price-space tolerance no longer pins sigma down.
func TestProperty_ImpliedVolRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("solver recovers the pricing volatility", prop.ForAll(
		func(strike, timeYears, rate, sigma float64, isPut bool) bool {
			typ := models.OptionCall
			if isPut {
				typ = models.OptionPut
			}
			spot := 100.0
			premium := Price(spot, strike, timeYears, rate, sigma, typ)
			got, ok := ImpliedVol(premium, spot, strike, timeYears, rate, typ)
			if !ok {
				return false
			}
			return math.Abs(got-sigma) < 1e-3
		},
		gen.Float64Range(90, 110),
		gen.Float64Range(0.25, 2.0),
		gen.Float64Range(0.0, 0.05),
		gen.Float64Range(0.15, 0.8),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: option premiums increase with volatility, so the bisection solver
// always has a monotone function to work with.
func TestProperty_PriceMonotoneInVol(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("higher vol never lowers the premium", prop.ForAll(
		func(strike, timeYears, sigma, bump float64, isPut bool) bool {
			typ := models.OptionCall
			if isPut {
				typ = models.OptionPut
			}
			lo := Price(100, strike, timeYears, 0.02, sigma, typ)
			hi := Price(100, strike, timeYears, 0.02, sigma+bump, typ)
			return hi >= lo-1e-12
		},
		gen.Float64Range(70, 130),
		gen.Float64Range(0.05, 2.0),
		gen.Float64Range(0.05, 2.0),
		gen.Float64Range(0.01, 1.0),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
