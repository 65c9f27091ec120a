// Package analytics provides risk/return statistics over equity series.
package analytics

import "math"

// Frequency is the sampling frequency of a value series.
type Frequency int

const (
	Daily Frequency = iota
	Monthly
	Yearly
)

// PeriodsPerYear returns the annualization factor for the frequency.
func (f Frequency) PeriodsPerYear() float64 {
	switch f {
	case Monthly:
		return 12
	case Yearly:
		return 1
	default:
		return 252
	}
}

// Metrics summarizes a value series. Ok distinguishes a computed result from
// the insufficient-data case (fewer than two points).
type Metrics struct {
	TotalReturn      float64
	AnnualizedReturn float64
	AnnualizedVol    float64
	Sharpe           float64
	MaxDrawdown      float64
}

// Returns computes the period-over-period return series v[i]/v[i-1] - 1.
// A series shorter than two points yields nil.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the sample standard deviation.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// AnnualizedVolatility is stdev(returns) scaled by the square root of the
// periods per year. ok is false when the return series is empty.
func AnnualizedVolatility(returns []float64, f Frequency) (float64, bool) {
	if len(returns) == 0 {
		return 0, false
	}
	return stdev(returns) * math.Sqrt(f.PeriodsPerYear()), true
}

// MaxDrawdown is the largest peak-to-trough decline in the series, returned
// as a non-positive fraction. ok is false for series shorter than two points.
func MaxDrawdown(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	peak := values[0]
	worst := 0.0
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := v/peak - 1
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst, true
}

// SharpeRatio is the annualized mean return in excess of the risk-free rate,
// divided by annualized volatility. ok is false when the series is too short
// or volatility is zero.
func SharpeRatio(returns []float64, f Frequency, riskFree float64) (float64, bool) {
	vol, ok := AnnualizedVolatility(returns, f)
	if !ok || vol == 0 {
		return 0, false
	}
	return (mean(returns)*f.PeriodsPerYear() - riskFree) / vol, true
}

// Compute derives the full metrics set for a value series. ok is false when
// the series has fewer than two points; the zero Metrics is the defined
// insufficient-data result.
func Compute(values []float64, f Frequency, riskFree float64) (Metrics, bool) {
	returns := Returns(values)
	if len(returns) == 0 || values[0] == 0 {
		return Metrics{}, false
	}
	var m Metrics
	m.TotalReturn = values[len(values)-1]/values[0] - 1
	m.AnnualizedReturn = math.Pow(1+m.TotalReturn, f.PeriodsPerYear()/float64(len(returns))) - 1
	m.AnnualizedVol, _ = AnnualizedVolatility(returns, f)
	m.Sharpe, _ = SharpeRatio(returns, f, riskFree)
	m.MaxDrawdown, _ = MaxDrawdown(values)
	return m, true
}
