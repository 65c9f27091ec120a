package models

import "time"

// TradeAction classifies an entry in the wheel trade log.
type TradeAction string

const (
	TradeSellPut          TradeAction = "SELL_PUT"
	TradeSellCall         TradeAction = "SELL_CALL"
	TradeAssignedBuy      TradeAction = "ASSIGNED_BUY"
	TradeAssignedSell     TradeAction = "ASSIGNED_SELL"
	TradeExpiredWorthless TradeAction = "EXPIRED_WORTHLESS"
	TradeSkip             TradeAction = "SKIP"
)

// IVSource records where a trade's implied volatility estimate came from.
// Provider-reported values always take precedence over the solver.
type IVSource string

const (
	IVProvider    IVSource = "provider"
	IVModel       IVSource = "model"
	IVUnavailable IVSource = "unavailable"
)

// Trade is an immutable record appended to the wheel trade log.
// Premium is the total credit for SELL_* actions (per-share settlement times
// contract unit) and zero otherwise. CashDelta is the net cash effect of the
// action, before any margin lock.
type Trade struct {
	Date       time.Time
	Action     TradeAction
	Contract   string
	Type       OptionType
	Strike     float64
	Expiry     time.Time
	Spot       float64
	Premium    float64
	CashDelta  float64
	ImpliedVol float64
	IVSource   IVSource
	Assigned   bool
	Note       string // set for SKIP rows only
}
