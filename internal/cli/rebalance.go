package cli

import (
	"time"

	"github.com/spf13/cobra"

	"wheel-backtest/internal/analytics"
	"wheel-backtest/internal/models"
	"wheel-backtest/internal/trading"
	"wheel-backtest/pkg/utils"
)

func newRebalanceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebalance",
		Short: "Run the monthly portfolio rebalancing backtest",
		Long: `Maintain fixed target weights over the configured basket of instruments,
rebalancing at each month's first trading day over the intersection of all
instruments' histories, and compare the result against benchmark indices.`,
		Example: `  wheel-backtest rebalance
  wheel-backtest rebalance --json
  wheel-backtest rebalance --export-dir ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			pcfg := app.Config.Portfolio
			if err := pcfg.Validate(); err != nil {
				output.Error("%v", err)
				return err
			}

			dataStore, err := app.OpenStore()
			if err != nil {
				output.Error("Failed to open store: %v", err)
				return err
			}

			ctx := cmd.Context()
			// Load the full available history per instrument; the engine
			// narrows the window to the intersection itself.
			var earliest, latest = time.Time{}, time.Now()
			prices := make(map[string][]models.Candle, len(pcfg.Holdings))
			for _, h := range pcfg.Holdings {
				candles, err := dataStore.GetCandles(ctx, h.Symbol, earliest, latest)
				if err != nil {
					output.Error("Failed to load %s: %v", h.Symbol, err)
					return err
				}
				prices[h.Symbol] = candles
			}
			benchmarks := make(map[string][]models.Candle, len(pcfg.Benchmarks))
			for _, sym := range pcfg.Benchmarks {
				candles, err := dataStore.GetCandles(ctx, sym, earliest, latest)
				if err != nil {
					app.Logger.Warn().Err(err).Str("benchmark", sym).Msg("failed to load benchmark")
					continue
				}
				benchmarks[sym] = candles
			}

			par := trading.PortfolioParams{
				Weights:        pcfg.TargetWeights(),
				InitialCapital: pcfg.InitialCapital,
				RiskFreeRate:   pcfg.RiskFreeRate,
			}
			rebalancer := trading.NewRebalancer(prices, benchmarks, par, app.Logger)
			result, err := rebalancer.Run(ctx)
			if err != nil {
				output.Error("Backtest failed: %v", err)
				return err
			}

			if err := dataStore.SaveBacktest(ctx, "rebalance", "portfolio", result.Summary); err != nil {
				app.Logger.Warn().Err(err).Msg("failed to persist backtest summary")
			}
			if dir, _ := cmd.Flags().GetString("export-dir"); dir != "" {
				if err := exportPortfolioResult(dir, result); err != nil {
					output.Error("Export failed: %v", err)
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			displayPortfolioResult(output, result)
			return nil
		},
	}

	return cmd
}

func displayPortfolioResult(output *Output, result *trading.PortfolioResult) {
	s := result.Summary
	output.Bold("Portfolio rebalancing backtest\n")
	output.Printf("Window:            %s to %s (%d trading days, %d rebalances)\n",
		s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"), s.TradingDays, s.Rebalances)
	output.Printf("Initial capital:   %s\n", utils.FormatCurrency(s.InitialCapital))
	output.Printf("Ending value:      %s\n", utils.FormatCurrency(s.EndingValue))
	output.Printf("Total return:      ")
	output.Signed(s.TotalReturn, "%s\n", utils.FormatPercent(s.TotalReturn))
	output.Printf("Annualized:        ")
	output.Signed(s.AnnualizedReturn, "%s\n", utils.FormatPercent(s.AnnualizedReturn))

	output.Println()
	output.Bold("%-16s %12s %12s %8s %12s\n", "Series", "Ann. return", "Ann. vol", "Sharpe", "Max drawdown")
	printMetricsRow(output, "portfolio", result.Metrics, result.MetricsOK)
	for _, b := range result.Benchmarks {
		printMetricsRow(output, b.Symbol, b.Metrics, b.MetricsOK)
	}
}

func printMetricsRow(output *Output, name string, m analytics.Metrics, ok bool) {
	if !ok {
		output.Dim("%-16s %12s\n", name, "insufficient data")
		return
	}
	output.Printf("%-16s %12s %12s %8.2f %12s\n",
		name,
		utils.FormatPercent(m.AnnualizedReturn),
		utils.FormatPercent(m.AnnualizedVol),
		m.Sharpe,
		utils.FormatPercent(m.MaxDrawdown))
}
