package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wheel-backtest/internal/config"
	"wheel-backtest/internal/models"
	"wheel-backtest/internal/options"
	"wheel-backtest/internal/trading"
	"wheel-backtest/pkg/utils"
)

// recentTradeCount limits the trade listing in summary output.
const recentTradeCount = 12

func newWheelCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wheel",
		Short: "Run the monthly wheel-strategy backtest",
		Long: `Simulate a monthly wheel cycle on an underlying with listed options:
sell an out-of-the-money put while flat, sell a covered call while holding
the underlying, and resolve assignments at each expiration.`,
		Example: `  wheel-backtest wheel
  wheel-backtest wheel --underlying 510050 --start 2022-01-01 --end 2024-12-31
  wheel-backtest wheel --otm-min 0.05 --otm-max 0.08 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			wcfg := app.Config.Wheel
			applyWheelFlags(cmd, &wcfg)
			if err := wcfg.Validate(); err != nil {
				output.Error("%v", err)
				return err
			}
			start, _ := config.ParseDate(wcfg.StartDate)
			end, _ := config.ParseDate(wcfg.EndDate)

			dataStore, err := app.OpenStore()
			if err != nil {
				output.Error("Failed to open store: %v", err)
				return err
			}

			ctx := cmd.Context()
			snap, err := dataStore.BuildSnapshot(ctx, wcfg.Underlying, start, end)
			if err != nil {
				output.Error("Failed to build snapshot: %v", err)
				return err
			}

			par := trading.WheelParams{
				Underlying:     wcfg.Underlying,
				Start:          start,
				End:            end,
				Band:           options.Band{Min: wcfg.OTMMin, Max: wcfg.OTMMax},
				InitialCapital: wcfg.InitialCapital,
				RiskFreeRate:   wcfg.RiskFreeRate,
			}
			engine := trading.NewWheelEngine(snap, par, app.Logger)
			result, err := engine.Run(ctx)
			if err != nil {
				output.Error("Backtest failed: %v", err)
				return err
			}

			if err := dataStore.SaveBacktest(ctx, "wheel", wcfg.Underlying, result.Summary); err != nil {
				app.Logger.Warn().Err(err).Msg("failed to persist backtest summary")
			}
			if dir, _ := cmd.Flags().GetString("export-dir"); dir != "" {
				if err := exportWheelResult(dir, result); err != nil {
					output.Error("Export failed: %v", err)
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(wheelResponse(result))
			}
			displayWheelResult(output, result)
			return nil
		},
	}

	cmd.Flags().StringP("underlying", "u", "", "Underlying symbol")
	cmd.Flags().String("start", "", "Backtest start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Backtest end date (YYYY-MM-DD)")
	cmd.Flags().Float64("otm-min", 0, "Lower bound of the OTM band (fraction)")
	cmd.Flags().Float64("otm-max", 0, "Upper bound of the OTM band (fraction)")
	cmd.Flags().Float64("capital", 0, "Initial capital")

	return cmd
}

func applyWheelFlags(cmd *cobra.Command, cfg *config.WheelConfig) {
	if v, _ := cmd.Flags().GetString("underlying"); v != "" {
		cfg.Underlying = v
	}
	if v, _ := cmd.Flags().GetString("start"); v != "" {
		cfg.StartDate = v
	}
	if v, _ := cmd.Flags().GetString("end"); v != "" {
		cfg.EndDate = v
	}
	if cmd.Flags().Changed("otm-min") {
		cfg.OTMMin, _ = cmd.Flags().GetFloat64("otm-min")
	}
	if cmd.Flags().Changed("otm-max") {
		cfg.OTMMax, _ = cmd.Flags().GetFloat64("otm-max")
	}
	if cmd.Flags().Changed("capital") {
		cfg.InitialCapital, _ = cmd.Flags().GetFloat64("capital")
	}
}

// wheelResponse is the machine-readable result shape: the summary plus the
// most recent trades.
func wheelResponse(result *trading.WheelResult) map[string]any {
	trades := result.Trades
	if len(trades) > recentTradeCount {
		trades = trades[len(trades)-recentTradeCount:]
	}
	return map[string]any{
		"summary":       result.Summary,
		"recent_trades": trades,
	}
}

func displayWheelResult(output *Output, result *trading.WheelResult) {
	s := result.Summary
	output.Bold("Wheel backtest: %s\n", s.Underlying)
	output.Printf("Window:            %s to %s (%d trading days)\n",
		s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"), s.TradingDays)
	output.Printf("Ending equity:     %s\n", utils.FormatCurrency(s.EndingEquity))
	output.Printf("Premium collected: %s\n", utils.FormatCurrency(s.TotalPremium))
	output.Printf("Assignments:       %d\n", s.Assignments)
	output.Printf("Skipped months:    %d\n", s.SkippedMonths)
	output.Printf("Peak margin:       %s\n", utils.FormatCurrency(s.PeakMargin))
	output.Printf("Return on capital: ")
	output.Signed(s.ReturnOnCapital, "%s\n", utils.FormatPercent(s.ReturnOnCapital))
	output.Printf("Annualized:        ")
	output.Signed(s.AnnualizedReturn, "%s\n", utils.FormatPercent(s.AnnualizedReturn))

	trades := result.Trades
	if len(trades) > recentTradeCount {
		trades = trades[len(trades)-recentTradeCount:]
	}
	if len(trades) == 0 {
		return
	}
	output.Println()
	output.Bold("Recent trades\n")
	for _, t := range trades {
		if t.Action == models.TradeSkip {
			output.Dim("%s  %-18s %s\n", t.Date.Format("2006-01-02"), t.Action, t.Note)
			continue
		}
		line := fmt.Sprintf("%s  %-18s %-12s strike %.3f", t.Date.Format("2006-01-02"), t.Action, t.Contract, t.Strike)
		if t.Premium > 0 {
			line += fmt.Sprintf("  premium %s", utils.FormatCurrency(t.Premium))
		}
		switch t.IVSource {
		case models.IVProvider:
			line += fmt.Sprintf("  iv %.4f", t.ImpliedVol)
		case models.IVModel:
			line += fmt.Sprintf("  iv %.4f (model)", t.ImpliedVol)
		}
		output.Printf("%s\n", line)
	}
}
