package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wheel-backtest/internal/config"
	"wheel-backtest/internal/store"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
}

// OpenStore lazily opens the SQLite store at the configured path.
func (a *App) OpenStore() (store.DataStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	s, err := store.NewSQLiteStore(a.Config.Data.DBPath)
	if err != nil {
		return nil, err
	}
	a.Store = s
	return s, nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:     "wheel-backtest",
		Short:   "Offline wheel-strategy and portfolio backtests over daily bars",
		Version: Version,
		Long: `wheel-backtest simulates a monthly cash-secured-put / covered-call cycle
against historical option quotes, and rebalances a multi-asset portfolio to
fixed target weights, reporting risk/return statistics for both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Store != nil {
				app.Store.Close()
			}
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("export-dir", "", "Directory to write CSV artifacts to")

	rootCmd.AddCommand(newWheelCmd(app))
	rootCmd.AddCommand(newRebalanceCmd(app))
	rootCmd.AddCommand(newDataCmd(app))

	return rootCmd
}
