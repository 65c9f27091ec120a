// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"wheel-backtest/internal/marketdata"
	"wheel-backtest/internal/models"
)

// DataStore defines the interface for market-data persistence. Backtest
// engines never touch the store directly; they consume immutable snapshots
// assembled from it.
type DataStore interface {
	// Candles (underlyings and benchmark indices share the same table)
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)

	// Option reference data and quotes
	SaveContracts(ctx context.Context, contracts []models.OptionContract) error
	GetContracts(ctx context.Context, underlying string) ([]models.OptionContract, error)
	SaveQuotes(ctx context.Context, quotes []models.OptionQuote) error
	GetQuotes(ctx context.Context, underlying string, from, to time.Time) ([]models.OptionQuote, error)

	// BuildSnapshot assembles the immutable per-run view for one underlying.
	BuildSnapshot(ctx context.Context, underlying string, from, to time.Time) (*marketdata.Snapshot, error)

	// Results
	SaveBacktest(ctx context.Context, kind, name string, summary any) error

	// Lifecycle
	Close() error
}
