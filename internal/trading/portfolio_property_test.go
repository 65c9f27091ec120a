package trading

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"wheel-backtest/internal/models"
)

// Property: every rebalance event only redistributes value. The shares bought
// at each event are worth exactly the portfolio value being rebalanced, and
// the new weights reproduce the targets.
func TestProperty_RebalancePreservesValue(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("rebalancing neither creates nor destroys value", prop.ForAll(
		func(weightA, driftA, driftB, capital float64) bool {
			days := weekdays("2024-01-01", "2024-03-29")
			prices := map[string][]models.Candle{
				"A": priceSeries(days, stepPrice("2024-02-01", 10, 10*driftA)),
				"B": priceSeries(days, stepPrice("2024-03-01", 50, 50*driftB)),
			}
			par := PortfolioParams{
				Weights: []models.TargetWeight{
					{Symbol: "A", Weight: weightA},
					{Symbol: "B", Weight: 1 - weightA},
				},
				InitialCapital: capital,
				RiskFreeRate:   0.02,
			}

			r := NewRebalancer(prices, nil, par, zerolog.Nop())
			result, err := r.Run(context.Background())
			if err != nil {
				return false
			}

			tol := 1e-6 * capital
			for _, e := range result.Events {
				newValue := 0.0
				oldValue := 0.0
				for _, c := range e.Changes {
					newValue += c.NewShares * c.Price
					oldValue += c.OldShares * c.Price
				}
				if math.Abs(newValue-e.PortfolioValue) > tol {
					return false
				}
				// Before the first buy the value sits in cash, afterwards in
				// the holdings themselves.
				if e.Date.After(result.Summary.Start) && math.Abs(oldValue-e.PortfolioValue) > tol {
					return false
				}
				for _, c := range e.Changes {
					var target float64
					for _, w := range par.Weights {
						if w.Symbol == c.Symbol {
							target = w.Weight
						}
					}
					if math.Abs(c.NewShares*c.Price/e.PortfolioValue-target) > 1e-9 {
						return false
					}
				}
			}
			return true
		},
		gen.Float64Range(0.05, 0.95),
		gen.Float64Range(0.5, 2.0),
		gen.Float64Range(0.5, 2.0),
		gen.Float64Range(10000, 1000000),
	))

	properties.TestingRun(t)
}
