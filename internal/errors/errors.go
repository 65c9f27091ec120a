// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNoContract    = errors.New("no contract available")
	ErrMissingQuote  = errors.New("quote not found")
	ErrNoTradingDays = errors.New("no trading days in range")
	ErrEmptyOverlap  = errors.New("instrument histories have no common date range")
	ErrDataNotFound  = errors.New("data not found")
	ErrConfigInvalid = errors.New("invalid configuration")
)

// ConfigError reports a configuration value rejected before a run starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigInvalid
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// DataError reports a data-layer failure for a specific symbol.
type DataError struct {
	Symbol string
	Op     string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error [%s] %s: %v", e.Symbol, e.Op, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(symbol, op string, err error) *DataError {
	return &DataError{Symbol: symbol, Op: op, Err: err}
}
