package trading

import (
	"math"
	"time"

	"wheel-backtest/internal/models"
)

// WheelSummary is the reduction of a run's trade log and equity series.
type WheelSummary struct {
	Underlying       string
	Start            time.Time
	End              time.Time
	TradingDays      int
	TotalPremium     float64
	Assignments      int
	SkippedMonths    int
	PeakMargin       float64
	EndingEquity     float64
	EndingCash       float64
	EndingHolding    float64
	ReturnOnCapital  float64
	AnnualizedReturn float64
}

// Summarize derives summary statistics from a completed run. It is a pure
// reduction: no state beyond its inputs.
func Summarize(par WheelParams, trades []models.Trade, equity []models.EquityPoint) WheelSummary {
	s := WheelSummary{
		Underlying:  par.Underlying,
		TradingDays: len(equity),
	}
	for _, t := range trades {
		switch t.Action {
		case models.TradeSellPut, models.TradeSellCall:
			s.TotalPremium += t.Premium
		case models.TradeAssignedBuy, models.TradeAssignedSell:
			s.Assignments++
		case models.TradeSkip:
			s.SkippedMonths++
		}
	}
	if len(equity) == 0 {
		return s
	}

	s.Start = equity[0].Date
	s.End = equity[len(equity)-1].Date
	last := equity[len(equity)-1]
	s.EndingEquity = last.Value
	s.EndingCash = last.Cash + last.Margin
	for _, p := range equity {
		if p.Margin > s.PeakMargin {
			s.PeakMargin = p.Margin
		}
	}
	s.EndingHolding = last.HoldingValue

	if par.InitialCapital > 0 {
		s.ReturnOnCapital = (s.EndingEquity - par.InitialCapital) / par.InitialCapital
		elapsedDays := s.End.Sub(s.Start).Hours() / 24
		if elapsedDays > 0 {
			s.AnnualizedReturn = math.Pow(1+s.ReturnOnCapital, 365/elapsedDays) - 1
		}
	}
	return s
}
