package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wheel-backtest/internal/store"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage the local market-data store",
	}
	cmd.AddCommand(newDataImportCmd(app))
	return cmd
}

func newDataImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-load candles, contracts, and quotes from CSV files",
		Long: `Load market data into the local SQLite store. Each flag takes a CSV file:

  --candles    symbol,date,open,high,low,close,volume
  --contracts  code,underlying,type,strike,expiry,list_date,unit
  --quotes     code,date,close,implied_vol (implied_vol may be empty)

Existing rows with the same key are replaced.`,
		Example: `  wheel-backtest data import --candles bars.csv
  wheel-backtest data import --contracts chain.csv --quotes quotes.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			candlesPath, _ := cmd.Flags().GetString("candles")
			contractsPath, _ := cmd.Flags().GetString("contracts")
			quotesPath, _ := cmd.Flags().GetString("quotes")
			if candlesPath == "" && contractsPath == "" && quotesPath == "" {
				return fmt.Errorf("nothing to import: pass --candles, --contracts, or --quotes")
			}

			dataStore, err := app.OpenStore()
			if err != nil {
				output.Error("Failed to open store: %v", err)
				return err
			}
			ctx := cmd.Context()

			if candlesPath != "" {
				bySymbol, err := store.ReadCandlesCSV(candlesPath)
				if err != nil {
					output.Error("%v", err)
					return err
				}
				total := 0
				for symbol, candles := range bySymbol {
					if err := dataStore.SaveCandles(ctx, symbol, candles); err != nil {
						output.Error("Failed to save candles for %s: %v", symbol, err)
						return err
					}
					total += len(candles)
				}
				output.Printf("Imported %d candles for %d symbols\n", total, len(bySymbol))
			}
			if contractsPath != "" {
				contracts, err := store.ReadContractsCSV(contractsPath)
				if err != nil {
					output.Error("%v", err)
					return err
				}
				if err := dataStore.SaveContracts(ctx, contracts); err != nil {
					output.Error("Failed to save contracts: %v", err)
					return err
				}
				output.Printf("Imported %d contracts\n", len(contracts))
			}
			if quotesPath != "" {
				quotes, err := store.ReadQuotesCSV(quotesPath)
				if err != nil {
					output.Error("%v", err)
					return err
				}
				if err := dataStore.SaveQuotes(ctx, quotes); err != nil {
					output.Error("Failed to save quotes: %v", err)
					return err
				}
				output.Printf("Imported %d quotes\n", len(quotes))
			}
			return nil
		},
	}

	cmd.Flags().String("candles", "", "Candle CSV file")
	cmd.Flags().String("contracts", "", "Option contract CSV file")
	cmd.Flags().String("quotes", "", "Option quote CSV file")

	return cmd
}
