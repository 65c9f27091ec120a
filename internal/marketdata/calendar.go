package marketdata

import (
	"sort"
	"time"

	apperrors "wheel-backtest/internal/errors"
	"wheel-backtest/internal/models"
)

// MonthStarts returns, for an ordered sequence of trading days, the first
// trading day of each calendar month: every day whose month differs from the
// previous day's. The first day always qualifies.
func MonthStarts(days []time.Time) []time.Time {
	var out []time.Time
	for i, d := range days {
		if i == 0 {
			out = append(out, d)
			continue
		}
		py, pm, _ := days[i-1].Date()
		y, m, _ := d.Date()
		if y != py || m != pm {
			out = append(out, d)
		}
	}
	return out
}

// CommonRange computes the run window for a multi-instrument backtest: the
// ordered trading days present in every instrument's history. The window is
// the intersection, not the union; an empty intersection means no valid
// backtest exists.
func CommonRange(series map[string][]models.Candle) ([]time.Time, error) {
	if len(series) == 0 {
		return nil, apperrors.ErrEmptyOverlap
	}
	counts := make(map[string]time.Time)
	hits := make(map[string]int)
	for _, candles := range series {
		seen := make(map[string]bool, len(candles))
		for _, c := range candles {
			key := dateKey(c.Date)
			if seen[key] {
				continue
			}
			seen[key] = true
			counts[key] = c.Date
			hits[key]++
		}
	}
	var out []time.Time
	for key, day := range counts {
		if hits[key] == len(series) {
			out = append(out, day)
		}
	}
	if len(out) == 0 {
		return nil, apperrors.ErrEmptyOverlap
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
