package models

import "time"

// EquityPoint is one daily mark of a backtest's value. The identity
// Cash + Margin + HoldingValue == Value holds at every point.
type EquityPoint struct {
	Date         time.Time
	Cash         float64
	Margin       float64
	HoldingValue float64
	Value        float64
}

// TargetWeight is one row of the portfolio's target allocation table.
type TargetWeight struct {
	Symbol string
	Weight float64
}

// Holding is a portfolio position in a single instrument.
type Holding struct {
	Symbol       string
	TargetWeight float64
	Shares       float64
	LastPrice    float64
}

// HoldingChange records the share/weight move of one instrument in a
// rebalance event.
type HoldingChange struct {
	Symbol    string
	Price     float64
	OldShares float64
	NewShares float64
	OldWeight float64
	NewWeight float64
}

// RebalanceEvent records one monthly restoration of target weights.
type RebalanceEvent struct {
	Date           time.Time
	PortfolioValue float64
	Changes        []HoldingChange
}

// BenchmarkPoint is one date-aligned value of a normalized benchmark curve.
type BenchmarkPoint struct {
	Date  time.Time
	Value float64
}
