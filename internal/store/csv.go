package store

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"wheel-backtest/internal/models"
)

// CSV row shapes for bulk market-data loads. Dates use YYYY-MM-DD.

type candleRow struct {
	Symbol string  `csv:"symbol"`
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

type contractRow struct {
	Code       string  `csv:"code"`
	Underlying string  `csv:"underlying"`
	Type       string  `csv:"type"`
	Strike     float64 `csv:"strike"`
	Expiry     string  `csv:"expiry"`
	ListDate   string  `csv:"list_date"`
	Unit       float64 `csv:"unit"`
}

type quoteRow struct {
	Code       string  `csv:"code"`
	Date       string  `csv:"date"`
	Close      float64 `csv:"close"`
	ImpliedVol string  `csv:"implied_vol"` // empty when the provider reported none
}

// ReadCandlesCSV parses a candle CSV grouped by symbol.
func ReadCandlesCSV(path string) (map[string][]models.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []candleRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := make(map[string][]models.Candle)
	for i, r := range rows {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad date %q", path, i+1, r.Date)
		}
		out[r.Symbol] = append(out[r.Symbol], models.Candle{
			Date: date, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume,
		})
	}
	return out, nil
}

// ReadContractsCSV parses an option-contract CSV.
func ReadContractsCSV(path string) ([]models.OptionContract, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []contractRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := make([]models.OptionContract, 0, len(rows))
	for i, r := range rows {
		expiry, err := time.Parse(dateLayout, r.Expiry)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad expiry %q", path, i+1, r.Expiry)
		}
		c := models.OptionContract{
			Code:       r.Code,
			Underlying: r.Underlying,
			Type:       models.OptionType(r.Type),
			Strike:     r.Strike,
			Expiry:     expiry,
			Unit:       r.Unit,
		}
		if r.ListDate != "" {
			if c.ListDate, err = time.Parse(dateLayout, r.ListDate); err != nil {
				return nil, fmt.Errorf("%s row %d: bad list_date %q", path, i+1, r.ListDate)
			}
		}
		if c.Type != models.OptionPut && c.Type != models.OptionCall {
			return nil, fmt.Errorf("%s row %d: bad type %q", path, i+1, r.Type)
		}
		out = append(out, c)
	}
	return out, nil
}

// ReadQuotesCSV parses an option-quote CSV.
func ReadQuotesCSV(path string) ([]models.OptionQuote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []quoteRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := make([]models.OptionQuote, 0, len(rows))
	for i, r := range rows {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad date %q", path, i+1, r.Date)
		}
		q := models.OptionQuote{Code: r.Code, Date: date, Close: r.Close}
		if r.ImpliedVol != "" {
			if _, err := fmt.Sscanf(r.ImpliedVol, "%f", &q.ImpliedVol); err != nil {
				return nil, fmt.Errorf("%s row %d: bad implied_vol %q", path, i+1, r.ImpliedVol)
			}
			q.HasImpliedVol = true
		}
		out = append(out, q)
	}
	return out, nil
}
