// Package marketdata provides immutable per-run views of fetched market data.
package marketdata

import (
	"sort"
	"time"

	apperrors "wheel-backtest/internal/errors"
	"wheel-backtest/internal/models"
)

const dateKeyLayout = "2006-01-02"

func dateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// Snapshot bundles everything one backtest run consumes: the trading
// calendar, daily bars for the underlying, listed contract metadata, and
// per-contract daily quotes. It is assembled once, up front, and treated as
// immutable for the duration of a run.
type Snapshot struct {
	Underlying string
	Days       []time.Time // ordered trading days with bars
	Contracts  []models.OptionContract

	bars   map[string]models.Candle
	quotes map[string]map[string]models.OptionQuote // code -> date -> quote
}

// NewSnapshot builds a snapshot from raw fetched data. Bars are sorted by
// date; the trading calendar is derived from the bar dates.
func NewSnapshot(underlying string, bars []models.Candle, contracts []models.OptionContract, quotes []models.OptionQuote) (*Snapshot, error) {
	if len(bars) == 0 {
		return nil, apperrors.NewDataError(underlying, "build snapshot", apperrors.ErrNoTradingDays)
	}
	sorted := make([]models.Candle, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	s := &Snapshot{
		Underlying: underlying,
		Contracts:  contracts,
		bars:       make(map[string]models.Candle, len(sorted)),
		quotes:     make(map[string]map[string]models.OptionQuote),
	}
	for _, b := range sorted {
		key := dateKey(b.Date)
		if _, dup := s.bars[key]; dup {
			continue
		}
		s.bars[key] = b
		s.Days = append(s.Days, b.Date)
	}
	for _, q := range quotes {
		byDate, ok := s.quotes[q.Code]
		if !ok {
			byDate = make(map[string]models.OptionQuote)
			s.quotes[q.Code] = byDate
		}
		byDate[dateKey(q.Date)] = q
	}
	return s, nil
}

// Close returns the underlying close for an exact trading day.
func (s *Snapshot) Close(day time.Time) (float64, bool) {
	b, ok := s.bars[dateKey(day)]
	if !ok {
		return 0, false
	}
	return b.Close, true
}

// CloseOnOrBefore returns the last close at or before the given date.
// Expiration dates are not always trading days, so settlement walks back to
// the most recent bar.
func (s *Snapshot) CloseOnOrBefore(day time.Time) (float64, bool) {
	idx := sort.Search(len(s.Days), func(i int) bool { return s.Days[i].After(day) })
	if idx == 0 {
		return 0, false
	}
	return s.bars[dateKey(s.Days[idx-1])].Close, true
}

// Quote returns a contract's quote for a trading day, falling back to the
// next trading day when the exact date is missing.
func (s *Snapshot) Quote(code string, day time.Time) (models.OptionQuote, bool) {
	byDate, ok := s.quotes[code]
	if !ok {
		return models.OptionQuote{}, false
	}
	if q, ok := byDate[dateKey(day)]; ok {
		return q, true
	}
	idx := sort.Search(len(s.Days), func(i int) bool { return s.Days[i].After(day) })
	if idx < len(s.Days) {
		if q, ok := byDate[dateKey(s.Days[idx])]; ok {
			return q, true
		}
	}
	return models.OptionQuote{}, false
}

// ContractsOn returns the contracts of the given type that are tradable on a
// date: already listed and expiring strictly after it.
func (s *Snapshot) ContractsOn(day time.Time, typ models.OptionType) []models.OptionContract {
	var out []models.OptionContract
	for _, c := range s.Contracts {
		if c.Type != typ {
			continue
		}
		if !c.ListDate.IsZero() && c.ListDate.After(day) {
			continue
		}
		if !c.Expiry.After(day) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// NextExpiryAfter returns the nearest expiration strictly after the given
// date among tradable contracts of the given type.
func (s *Snapshot) NextExpiryAfter(day time.Time, typ models.OptionType) (time.Time, bool) {
	var best time.Time
	found := false
	for _, c := range s.ContractsOn(day, typ) {
		if !found || c.Expiry.Before(best) {
			best = c.Expiry
			found = true
		}
	}
	return best, found
}

// ContractsExpiring returns tradable contracts of the given type for one
// expiration date.
func (s *Snapshot) ContractsExpiring(day, expiry time.Time, typ models.OptionType) []models.OptionContract {
	var out []models.OptionContract
	for _, c := range s.ContractsOn(day, typ) {
		if c.Expiry.Equal(expiry) {
			out = append(out, c)
		}
	}
	return out
}
