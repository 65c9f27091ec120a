// Package config provides configuration management for the backtest application.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "wheel-backtest/internal/errors"
	"wheel-backtest/internal/models"
)

const dateLayout = "2006-01-02"

// weightTolerance is the floating tolerance for the target-weight sum check.
const weightTolerance = 1e-6

// Config holds all application configuration.
type Config struct {
	Wheel     WheelConfig     `mapstructure:"wheel"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	Data      DataConfig      `mapstructure:"data"`
	Log       LogConfig       `mapstructure:"log"`
}

// WheelConfig holds wheel-strategy backtest configuration.
type WheelConfig struct {
	Underlying     string  `mapstructure:"underlying"`
	StartDate      string  `mapstructure:"start_date"`
	EndDate        string  `mapstructure:"end_date"`
	OTMMin         float64 `mapstructure:"otm_min"`
	OTMMax         float64 `mapstructure:"otm_max"`
	InitialCapital float64 `mapstructure:"initial_capital"`
	RiskFreeRate   float64 `mapstructure:"risk_free_rate"`
}

// PortfolioConfig holds multi-asset rebalancing configuration.
// Rebalancing frequency is fixed at monthly.
type PortfolioConfig struct {
	Holdings       []HoldingConfig `mapstructure:"holdings"`
	Benchmarks     []string        `mapstructure:"benchmarks"`
	InitialCapital float64         `mapstructure:"initial_capital"`
	RiskFreeRate   float64         `mapstructure:"risk_free_rate"`
}

// HoldingConfig is one row of the target-weight table.
type HoldingConfig struct {
	Symbol string  `mapstructure:"symbol"`
	Weight float64 `mapstructure:"weight"`
}

// DataConfig holds data-store configuration.
type DataConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
	Path    string `mapstructure:"path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "wheel-backtest")
}

// Load reads configuration from the given file (or the default location when
// path is empty), applies defaults, and validates it.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("wheel.otm_min", 0.07)
	v.SetDefault("wheel.otm_max", 0.10)
	v.SetDefault("wheel.initial_capital", 30000.0)
	v.SetDefault("wheel.risk_free_rate", 0.02)
	v.SetDefault("portfolio.initial_capital", 100000.0)
	v.SetDefault("portfolio.risk_free_rate", 0.02)
	v.SetDefault("data.db_path", filepath.Join(DefaultConfigDir(), "market.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.file", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("WHEEL_BACKTEST")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus flags cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// ParseDate parses a config date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// Validate rejects invalid configuration before any simulation begins.
func (c *WheelConfig) Validate() error {
	if c.Underlying == "" {
		return apperrors.NewConfigError("wheel.underlying", "required")
	}
	if c.OTMMin < 0 || c.OTMMax <= c.OTMMin {
		return apperrors.NewConfigError("wheel.otm_min/otm_max",
			fmt.Sprintf("need 0 <= min < max, got [%v, %v]", c.OTMMin, c.OTMMax))
	}
	if c.InitialCapital <= 0 {
		return apperrors.NewConfigError("wheel.initial_capital", "must be positive")
	}
	start, err := ParseDate(c.StartDate)
	if err != nil {
		return apperrors.NewConfigError("wheel.start_date", "expected YYYY-MM-DD")
	}
	end, err := ParseDate(c.EndDate)
	if err != nil {
		return apperrors.NewConfigError("wheel.end_date", "expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return apperrors.NewConfigError("wheel.end_date", "end date before start date")
	}
	return nil
}

// Validate rejects invalid portfolio configuration.
func (c *PortfolioConfig) Validate() error {
	if len(c.Holdings) == 0 {
		return apperrors.NewConfigError("portfolio.holdings", "at least one holding required")
	}
	sum := 0.0
	seen := make(map[string]bool, len(c.Holdings))
	for _, h := range c.Holdings {
		if h.Symbol == "" {
			return apperrors.NewConfigError("portfolio.holdings", "holding without symbol")
		}
		if seen[h.Symbol] {
			return apperrors.NewConfigError("portfolio.holdings", "duplicate symbol "+h.Symbol)
		}
		seen[h.Symbol] = true
		if h.Weight <= 0 {
			return apperrors.NewConfigError("portfolio.holdings",
				fmt.Sprintf("%s: weight must be positive", h.Symbol))
		}
		sum += h.Weight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return apperrors.NewConfigError("portfolio.holdings",
			fmt.Sprintf("weights sum to %.6f, expected 1.0", sum))
	}
	if c.InitialCapital <= 0 {
		return apperrors.NewConfigError("portfolio.initial_capital", "must be positive")
	}
	return nil
}

// TargetWeights converts the holdings table to the model representation,
// preserving order.
func (c *PortfolioConfig) TargetWeights() []models.TargetWeight {
	out := make([]models.TargetWeight, 0, len(c.Holdings))
	for _, h := range c.Holdings {
		out = append(out, models.TargetWeight{Symbol: h.Symbol, Weight: h.Weight})
	}
	return out
}
