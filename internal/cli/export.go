package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"wheel-backtest/internal/trading"
)

// CSV artifact shapes, mirroring what the engines report.

type equityRow struct {
	Date         string  `csv:"date"`
	Cash         float64 `csv:"cash"`
	Margin       float64 `csv:"margin"`
	HoldingValue float64 `csv:"holding_value"`
	Value        float64 `csv:"value"`
}

type tradeRow struct {
	Date       string  `csv:"date"`
	Action     string  `csv:"action"`
	Contract   string  `csv:"contract"`
	Type       string  `csv:"type"`
	Strike     float64 `csv:"strike"`
	Expiry     string  `csv:"expiry"`
	Spot       float64 `csv:"spot"`
	Premium    float64 `csv:"premium"`
	CashDelta  float64 `csv:"cash_delta"`
	ImpliedVol float64 `csv:"implied_vol"`
	IVSource   string  `csv:"iv_source"`
	Assigned   bool    `csv:"assigned"`
	Note       string  `csv:"note"`
}

type rebalanceRow struct {
	Date           string  `csv:"date"`
	PortfolioValue float64 `csv:"portfolio_value"`
	Symbol         string  `csv:"symbol"`
	Price          float64 `csv:"price"`
	OldShares      float64 `csv:"old_shares"`
	NewShares      float64 `csv:"new_shares"`
	OldWeight      float64 `csv:"old_weight"`
	NewWeight      float64 `csv:"new_weight"`
}

type benchmarkRow struct {
	Date   string  `csv:"date"`
	Series string  `csv:"series"`
	Value  float64 `csv:"value"`
}

func writeCSV(dir, name string, rows any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func exportWheelResult(dir string, result *trading.WheelResult) error {
	equity := make([]equityRow, 0, len(result.EquityCurve))
	for _, p := range result.EquityCurve {
		equity = append(equity, equityRow{
			Date:         p.Date.Format("2006-01-02"),
			Cash:         p.Cash,
			Margin:       p.Margin,
			HoldingValue: p.HoldingValue,
			Value:        p.Value,
		})
	}
	if err := writeCSV(dir, "wheel_equity_curve.csv", &equity); err != nil {
		return err
	}

	trades := make([]tradeRow, 0, len(result.Trades))
	for _, t := range result.Trades {
		row := tradeRow{
			Date:       t.Date.Format("2006-01-02"),
			Action:     string(t.Action),
			Contract:   t.Contract,
			Type:       string(t.Type),
			Strike:     t.Strike,
			Spot:       t.Spot,
			Premium:    t.Premium,
			CashDelta:  t.CashDelta,
			ImpliedVol: t.ImpliedVol,
			IVSource:   string(t.IVSource),
			Assigned:   t.Assigned,
			Note:       t.Note,
		}
		if !t.Expiry.IsZero() {
			row.Expiry = t.Expiry.Format("2006-01-02")
		}
		trades = append(trades, row)
	}
	return writeCSV(dir, "wheel_trades.csv", &trades)
}

func exportPortfolioResult(dir string, result *trading.PortfolioResult) error {
	equity := make([]equityRow, 0, len(result.EquityCurve))
	for _, p := range result.EquityCurve {
		equity = append(equity, equityRow{
			Date:         p.Date.Format("2006-01-02"),
			Cash:         p.Cash,
			HoldingValue: p.HoldingValue,
			Value:        p.Value,
		})
	}
	if err := writeCSV(dir, "portfolio_equity_curve.csv", &equity); err != nil {
		return err
	}

	var rebalances []rebalanceRow
	for _, e := range result.Events {
		for _, c := range e.Changes {
			rebalances = append(rebalances, rebalanceRow{
				Date:           e.Date.Format("2006-01-02"),
				PortfolioValue: e.PortfolioValue,
				Symbol:         c.Symbol,
				Price:          c.Price,
				OldShares:      c.OldShares,
				NewShares:      c.NewShares,
				OldWeight:      c.OldWeight,
				NewWeight:      c.NewWeight,
			})
		}
	}
	if err := writeCSV(dir, "portfolio_rebalances.csv", &rebalances); err != nil {
		return err
	}

	var comparison []benchmarkRow
	for _, p := range result.EquityCurve {
		comparison = append(comparison, benchmarkRow{
			Date:   p.Date.Format("2006-01-02"),
			Series: "portfolio",
			Value:  p.Value,
		})
	}
	for _, b := range result.Benchmarks {
		for _, p := range b.Curve {
			comparison = append(comparison, benchmarkRow{
				Date:   p.Date.Format("2006-01-02"),
				Series: b.Symbol,
				Value:  p.Value,
			})
		}
	}
	return writeCSV(dir, "portfolio_vs_benchmarks.csv", &comparison)
}
