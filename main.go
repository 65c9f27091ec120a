package main

import (
	"fmt"
	"os"

	"wheel-backtest/internal/cli"
	"wheel-backtest/internal/config"
	"wheel-backtest/internal/logging"
)

func main() {
	configPath := os.Getenv("WHEEL_BACKTEST_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Console = cfg.Log.Console
	logCfg.File = cfg.Log.File
	if cfg.Log.Path != "" {
		logCfg.FilePath = cfg.Log.Path
	}
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
