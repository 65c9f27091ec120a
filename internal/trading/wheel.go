// Package trading implements the backtest engines: the wheel-strategy state
// machine and the multi-asset portfolio rebalancer.
package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "wheel-backtest/internal/errors"
	"wheel-backtest/internal/marketdata"
	"wheel-backtest/internal/models"
	"wheel-backtest/internal/options"
)

// WheelParams configures a single wheel backtest run.
type WheelParams struct {
	Underlying     string
	Start          time.Time
	End            time.Time
	Band           options.Band
	InitialCapital float64
	RiskFreeRate   float64
}

// positionKind is the closed set of wheel position states. The engine never
// holds more than one option leg, by construction: a put leg exists only in
// posShortPut, a call leg only in posLong.
type positionKind int

const (
	// posFlat: no option or underlying position.
	posFlat positionKind = iota
	// posShortPut: a cash-secured short put, margin locked.
	posShortPut
	// posLong: holding the underlying; a short call may or may not be open
	// against it this cycle.
	posLong
)

// shortLeg is the single live option obligation.
type shortLeg struct {
	contract models.OptionContract
	premium  float64 // total credit received at entry
}

// WheelEngine rolls a cash-secured-put / covered-call position month over
// month against a market snapshot. One engine instance drives one run; it is
// not safe for concurrent use and never needs to be.
type WheelEngine struct {
	snap *marketdata.Snapshot
	par  WheelParams
	log  zerolog.Logger

	kind   positionKind
	leg    *shortLeg
	shares float64
	cash   float64
	margin float64

	trades []models.Trade
	equity []models.EquityPoint
}

// NewWheelEngine creates an engine over a prepared snapshot.
func NewWheelEngine(snap *marketdata.Snapshot, par WheelParams, logger zerolog.Logger) *WheelEngine {
	return &WheelEngine{
		snap: snap,
		par:  par,
		log:  logger.With().Str("engine", "wheel").Str("underlying", par.Underlying).Logger(),
	}
}

// WheelResult is the full output of one run.
type WheelResult struct {
	Params      WheelParams
	Summary     WheelSummary
	Trades      []models.Trade
	EquityCurve []models.EquityPoint
}

// Run executes the backtest as a strict sequential fold over the snapshot's
// trading days: expirations resolve first, month boundaries trigger a new
// decision, and every day ends with a mark-to-market snapshot. The context is
// checked between day iterations only; a day's processing never partially
// commits.
func (e *WheelEngine) Run(ctx context.Context) (*WheelResult, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	e.kind = posFlat
	e.cash = e.par.InitialCapital
	monthStart := make(map[time.Time]bool)
	for _, d := range marketdata.MonthStarts(e.snap.Days) {
		monthStart[d] = true
	}

	for _, day := range e.snap.Days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.leg != nil && !day.Before(e.leg.contract.Expiry) {
			e.resolveExpiration(day)
		}
		if monthStart[day] {
			e.decide(day)
		}
		e.markToMarket(day)
	}

	res := &WheelResult{
		Params:      e.par,
		Trades:      e.trades,
		EquityCurve: e.equity,
	}
	res.Summary = Summarize(e.par, e.trades, e.equity)
	return res, nil
}

func (e *WheelEngine) validate() error {
	if e.par.InitialCapital <= 0 {
		return apperrors.NewConfigError("initial_capital", "must be positive")
	}
	if e.par.Band.Min < 0 || e.par.Band.Max <= e.par.Band.Min {
		return apperrors.NewConfigError("otm_band", "need 0 <= min < max")
	}
	if !e.par.End.IsZero() && e.par.End.Before(e.par.Start) {
		return apperrors.NewConfigError("end_date", "end date before start date")
	}
	if len(e.snap.Days) == 0 {
		return apperrors.NewDataError(e.par.Underlying, "run", apperrors.ErrNoTradingDays)
	}
	return nil
}

// decide runs the month-boundary transition: sell a put while flat, or sell a
// covered call while long with no open leg. An already-open leg means nothing
// to do this month.
func (e *WheelEngine) decide(day time.Time) {
	if e.leg != nil {
		return
	}
	spot, ok := e.snap.Close(day)
	if !ok {
		e.skip(day, "no underlying close on decision day", apperrors.ErrNoTradingDays)
		return
	}

	typ := models.OptionPut
	if e.kind == posLong {
		typ = models.OptionCall
	}

	expiry, ok := e.snap.NextExpiryAfter(day, typ)
	if !ok {
		e.skip(day, "no "+string(typ)+" expirations available", apperrors.ErrNoContract)
		return
	}
	pool := e.snap.ContractsExpiring(day, expiry, typ)
	contract, err := options.Select(pool, spot, typ, e.par.Band)
	if err != nil {
		e.skip(day, "no contract in or near the OTM band", err)
		return
	}
	quote, ok := e.snap.Quote(contract.Code, day)
	if !ok {
		e.skip(day, "missing quote for "+contract.Code, apperrors.ErrMissingQuote)
		return
	}

	premium := quote.Close * contract.Unit
	timeYears := contract.Expiry.Sub(day).Hours() / 24 / 365
	iv, ivSource := options.Estimate(quote, spot, contract.Strike, timeYears, e.par.RiskFreeRate, typ)

	e.cash += premium
	e.leg = &shortLeg{contract: contract, premium: premium}

	action := models.TradeSellCall
	if typ == models.OptionPut {
		action = models.TradeSellPut
		e.kind = posShortPut
		// Cash-secured: the full notional moves from cash to locked margin
		// until the put expires or assigns.
		notional := contract.Strike * contract.Unit
		e.cash -= notional
		e.margin += notional
	}

	e.trades = append(e.trades, models.Trade{
		Date:       day,
		Action:     action,
		Contract:   contract.Code,
		Type:       typ,
		Strike:     contract.Strike,
		Expiry:     contract.Expiry,
		Spot:       spot,
		Premium:    premium,
		CashDelta:  premium,
		ImpliedVol: iv,
		IVSource:   ivSource,
	})
	e.log.Debug().
		Time("date", day).
		Str("action", string(action)).
		Str("contract", contract.Code).
		Float64("strike", contract.Strike).
		Float64("premium", premium).
		Msg("sold option")
}

// resolveExpiration settles the open leg against the underlying close on its
// expiration date. A close exactly at the strike is not assigned.
func (e *WheelEngine) resolveExpiration(day time.Time) {
	leg := e.leg
	settle, ok := e.snap.CloseOnOrBefore(leg.contract.Expiry)
	if !ok {
		// No bar at or before expiry; leave the leg for a later day.
		return
	}
	contract := leg.contract
	notional := contract.Strike * contract.Unit
	e.leg = nil

	switch contract.Type {
	case models.OptionPut:
		e.margin -= notional
		e.cash += notional
		if settle < contract.Strike {
			e.cash -= notional
			e.shares += contract.Unit
			e.kind = posLong
			e.trades = append(e.trades, models.Trade{
				Date: day, Action: models.TradeAssignedBuy,
				Contract: contract.Code, Type: contract.Type,
				Strike: contract.Strike, Expiry: contract.Expiry,
				Spot: settle, CashDelta: -notional, Assigned: true,
			})
			e.log.Info().Time("date", day).Str("contract", contract.Code).
				Float64("settle", settle).Msg("put assigned, underlying acquired")
			return
		}
		e.kind = posFlat
	case models.OptionCall:
		if settle > contract.Strike {
			sold := contract.Unit
			if sold > e.shares {
				sold = e.shares
			}
			proceeds := contract.Strike * sold
			e.cash += proceeds
			e.shares -= sold
			if e.shares == 0 {
				e.kind = posFlat
			}
			e.trades = append(e.trades, models.Trade{
				Date: day, Action: models.TradeAssignedSell,
				Contract: contract.Code, Type: contract.Type,
				Strike: contract.Strike, Expiry: contract.Expiry,
				Spot: settle, CashDelta: proceeds, Assigned: true,
			})
			e.log.Info().Time("date", day).Str("contract", contract.Code).
				Float64("settle", settle).Msg("call assigned, underlying delivered")
			return
		}
		// Still long, eligible to sell another call next month.
	}

	e.trades = append(e.trades, models.Trade{
		Date: day, Action: models.TradeExpiredWorthless,
		Contract: contract.Code, Type: contract.Type,
		Strike: contract.Strike, Expiry: contract.Expiry,
		Spot: settle,
	})
	e.log.Debug().Time("date", day).Str("contract", contract.Code).
		Float64("settle", settle).Msg("option expired worthless")
}

// skip records a month where no action could be taken. State is unchanged and
// the run continues with subsequent months.
func (e *WheelEngine) skip(day time.Time, reason string, cause error) {
	e.trades = append(e.trades, models.Trade{
		Date:     day,
		Action:   models.TradeSkip,
		IVSource: models.IVUnavailable,
		Note:     reason,
	})
	e.log.Warn().Time("date", day).Err(cause).Str("reason", reason).Msg("skipping month")
}

// markToMarket appends the day's equity snapshot. Open option legs are not
// repriced daily; their premium is already in cash and assignment settles at
// expiration.
func (e *WheelEngine) markToMarket(day time.Time) {
	close, ok := e.snap.Close(day)
	if !ok {
		return
	}
	holding := e.shares * close
	e.equity = append(e.equity, models.EquityPoint{
		Date:         day,
		Cash:         e.cash,
		Margin:       e.margin,
		HoldingValue: holding,
		Value:        e.cash + e.margin + holding,
	})
}
