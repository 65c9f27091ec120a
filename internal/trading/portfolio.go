package trading

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"wheel-backtest/internal/analytics"
	apperrors "wheel-backtest/internal/errors"
	"wheel-backtest/internal/marketdata"
	"wheel-backtest/internal/models"
)

// weightTolerance is the floating tolerance for target-weight sums.
const weightTolerance = 1e-6

// PortfolioParams configures a portfolio rebalancing run.
type PortfolioParams struct {
	Weights        []models.TargetWeight
	InitialCapital float64
	RiskFreeRate   float64
}

// Rebalancer maintains fixed target weights over a basket of instruments,
// trading back to target at each month's first trading day and marking all
// holdings daily. Like the wheel engine, one instance drives one run.
type Rebalancer struct {
	prices     map[string][]models.Candle
	benchmarks map[string][]models.Candle
	par        PortfolioParams
	log        zerolog.Logger
}

// NewRebalancer creates a rebalancer over pre-fetched price histories.
// benchmarks may be nil.
func NewRebalancer(prices, benchmarks map[string][]models.Candle, par PortfolioParams, logger zerolog.Logger) *Rebalancer {
	return &Rebalancer{
		prices:     prices,
		benchmarks: benchmarks,
		par:        par,
		log:        logger.With().Str("engine", "rebalance").Logger(),
	}
}

// PortfolioSummary is the top-level result of a rebalancing run.
type PortfolioSummary struct {
	Start            time.Time
	End              time.Time
	TradingDays      int
	Rebalances       int
	InitialCapital   float64
	EndingValue      float64
	TotalReturn      float64
	AnnualizedReturn float64
}

// BenchmarkResult is a pass-through index curve normalized to the portfolio's
// starting value, with its own risk/return metrics.
type BenchmarkResult struct {
	Symbol    string
	Curve     []models.BenchmarkPoint
	Metrics   analytics.Metrics
	MetricsOK bool
}

// PortfolioResult is the full output of one rebalancing run.
type PortfolioResult struct {
	Params      PortfolioParams
	Summary     PortfolioSummary
	EquityCurve []models.EquityPoint
	Events      []models.RebalanceEvent
	Metrics     analytics.Metrics
	MetricsOK   bool
	Benchmarks  []BenchmarkResult
}

// Run executes the rebalancing backtest over the intersection of all
// instruments' histories. An empty intersection is fatal: no valid backtest
// exists.
func (r *Rebalancer) Run(ctx context.Context) (*PortfolioResult, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	held := make(map[string][]models.Candle, len(r.par.Weights))
	for _, w := range r.par.Weights {
		held[w.Symbol] = r.prices[w.Symbol]
	}
	days, err := marketdata.CommonRange(held)
	if err != nil {
		return nil, err
	}

	closes := make(map[string]map[string]float64, len(held))
	for sym, candles := range held {
		m := make(map[string]float64, len(candles))
		for _, c := range candles {
			m[dayKey(c.Date)] = c.Close
		}
		closes[sym] = m
	}

	monthStart := make(map[time.Time]bool)
	for _, d := range marketdata.MonthStarts(days) {
		monthStart[d] = true
	}

	shares := make(map[string]float64, len(r.par.Weights))
	cash := r.par.InitialCapital
	var curve []models.EquityPoint
	var events []models.RebalanceEvent

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := dayKey(day)
		if monthStart[day] {
			value := cash
			for _, w := range r.par.Weights {
				value += shares[w.Symbol] * closes[w.Symbol][key]
			}
			event := models.RebalanceEvent{Date: day, PortfolioValue: value}
			for _, w := range r.par.Weights {
				price := closes[w.Symbol][key]
				old := shares[w.Symbol]
				target := value * w.Weight / price
				event.Changes = append(event.Changes, models.HoldingChange{
					Symbol:    w.Symbol,
					Price:     price,
					OldShares: old,
					NewShares: target,
					OldWeight: old * price / value,
					NewWeight: w.Weight,
				})
				shares[w.Symbol] = target
			}
			cash = 0
			events = append(events, event)
			r.log.Debug().Time("date", day).Float64("value", value).Msg("rebalanced to target weights")
		}

		holding := 0.0
		for _, w := range r.par.Weights {
			holding += shares[w.Symbol] * closes[w.Symbol][key]
		}
		curve = append(curve, models.EquityPoint{
			Date:         day,
			Cash:         cash,
			HoldingValue: holding,
			Value:        cash + holding,
		})
	}

	res := &PortfolioResult{
		Params:      r.par,
		EquityCurve: curve,
		Events:      events,
	}
	values := make([]float64, len(curve))
	for i, p := range curve {
		values[i] = p.Value
	}
	res.Metrics, res.MetricsOK = analytics.Compute(values, analytics.Daily, r.par.RiskFreeRate)
	res.Summary = r.summarize(curve, events)
	res.Benchmarks = r.benchmarkCurves(days)
	return res, nil
}

func (r *Rebalancer) validate() error {
	if len(r.par.Weights) == 0 {
		return apperrors.NewConfigError("weights", "at least one holding required")
	}
	sum := 0.0
	for _, w := range r.par.Weights {
		if w.Weight <= 0 {
			return apperrors.NewConfigError("weights", w.Symbol+": weight must be positive")
		}
		sum += w.Weight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return apperrors.NewConfigError("weights", fmt.Sprintf("sum to %.6f, expected 1.0", sum))
	}
	if r.par.InitialCapital <= 0 {
		return apperrors.NewConfigError("initial_capital", "must be positive")
	}
	for _, w := range r.par.Weights {
		if len(r.prices[w.Symbol]) == 0 {
			return apperrors.NewDataError(w.Symbol, "load prices", apperrors.ErrDataNotFound)
		}
	}
	return nil
}

func (r *Rebalancer) summarize(curve []models.EquityPoint, events []models.RebalanceEvent) PortfolioSummary {
	s := PortfolioSummary{
		TradingDays:    len(curve),
		Rebalances:     len(events),
		InitialCapital: r.par.InitialCapital,
	}
	if len(curve) == 0 {
		return s
	}
	s.Start = curve[0].Date
	s.End = curve[len(curve)-1].Date
	s.EndingValue = curve[len(curve)-1].Value
	s.TotalReturn = s.EndingValue/r.par.InitialCapital - 1
	elapsedDays := s.End.Sub(s.Start).Hours() / 24
	if elapsedDays > 0 {
		s.AnnualizedReturn = math.Pow(1+s.TotalReturn, 365/elapsedDays) - 1
	}
	return s
}

// benchmarkCurves aligns each benchmark series to the run window by carrying
// the last close forward, then normalizes it to the portfolio's starting
// value. Benchmarks are pass-through: no trading logic applies.
func (r *Rebalancer) benchmarkCurves(days []time.Time) []BenchmarkResult {
	syms := make([]string, 0, len(r.benchmarks))
	for sym := range r.benchmarks {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	var out []BenchmarkResult
	for _, sym := range syms {
		candles := r.benchmarks[sym]
		sort.Slice(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })

		var raw []float64
		var aligned []models.BenchmarkPoint
		idx := 0
		last := 0.0
		for _, day := range days {
			for idx < len(candles) && !candles[idx].Date.After(day) {
				last = candles[idx].Close
				idx++
			}
			if last == 0 {
				continue // no data yet at the start of the window
			}
			raw = append(raw, last)
			aligned = append(aligned, models.BenchmarkPoint{Date: day, Value: last})
		}
		if len(raw) < 2 {
			r.log.Warn().Str("benchmark", sym).Msg("insufficient benchmark data, skipping")
			continue
		}
		base := raw[0]
		for i := range aligned {
			aligned[i].Value = r.par.InitialCapital * aligned[i].Value / base
		}
		res := BenchmarkResult{Symbol: sym, Curve: aligned}
		res.Metrics, res.MetricsOK = analytics.Compute(raw, analytics.Daily, r.par.RiskFreeRate)
		out = append(out, res)
	}
	return out
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
