// Package models defines core domain types.
package models

import "time"

// OptionType identifies the side of an option contract.
type OptionType string

const (
	OptionPut  OptionType = "PUT"
	OptionCall OptionType = "CALL"
)

// Candle represents a single daily OHLCV bar.
type Candle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// OptionContract is immutable listed-contract metadata.
type OptionContract struct {
	Code       string
	Underlying string
	Type       OptionType
	Strike     float64
	Expiry     time.Time
	ListDate   time.Time
	Unit       float64 // underlying shares per contract
}

// OptionQuote is one daily settlement quote for a contract.
// ImpliedVol is provider-supplied and optional; HasImpliedVol distinguishes
// a reported zero from a missing value.
type OptionQuote struct {
	Code          string
	Date          time.Time
	Close         float64 // settlement premium per underlying share
	ImpliedVol    float64
	HasImpliedVol bool
}
