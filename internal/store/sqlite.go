package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"wheel-backtest/internal/marketdata"
	"wheel-backtest/internal/models"
)

const dateLayout = "2006-01-02"

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Daily bars for underlyings and benchmark indices
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL DEFAULT 0,
		UNIQUE(symbol, date)
	);
	CREATE INDEX IF NOT EXISTS idx_candles_symbol_date ON candles(symbol, date);

	-- Listed option contract metadata
	CREATE TABLE IF NOT EXISTS option_contracts (
		code TEXT PRIMARY KEY,
		underlying TEXT NOT NULL,
		type TEXT NOT NULL,
		strike REAL NOT NULL,
		expiry TEXT NOT NULL,
		list_date TEXT,
		unit REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contracts_underlying ON option_contracts(underlying);

	-- Daily settlement quotes per contract
	CREATE TABLE IF NOT EXISTS option_quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		date TEXT NOT NULL,
		close REAL NOT NULL,
		implied_vol REAL,
		UNIQUE(code, date)
	);
	CREATE INDEX IF NOT EXISTS idx_quotes_code_date ON option_quotes(code, date);

	-- Persisted backtest summaries
	CREATE TABLE IF NOT EXISTS backtests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		summary TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveCandles upserts daily bars for a symbol.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, symbol, c.Date.Format(dateLayout),
			c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("saving candle %s %s: %w", symbol, c.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// GetCandles returns a symbol's bars in [from, to], ordered by date.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume FROM candles
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		symbol, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Candle
	for rows.Next() {
		var c models.Candle
		var date string
		if err := rows.Scan(&date, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		if c.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveContracts upserts option contract metadata.
func (s *SQLiteStore) SaveContracts(ctx context.Context, contracts []models.OptionContract) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO option_contracts (code, underlying, type, strike, expiry, list_date, unit)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range contracts {
		listDate := ""
		if !c.ListDate.IsZero() {
			listDate = c.ListDate.Format(dateLayout)
		}
		if _, err := stmt.ExecContext(ctx, c.Code, c.Underlying, string(c.Type),
			c.Strike, c.Expiry.Format(dateLayout), listDate, c.Unit); err != nil {
			return fmt.Errorf("saving contract %s: %w", c.Code, err)
		}
	}
	return tx.Commit()
}

// GetContracts returns all contracts for an underlying.
func (s *SQLiteStore) GetContracts(ctx context.Context, underlying string) ([]models.OptionContract, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, underlying, type, strike, expiry, list_date, unit
		FROM option_contracts WHERE underlying = ? ORDER BY expiry, strike`,
		underlying)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OptionContract
	for rows.Next() {
		var c models.OptionContract
		var typ, expiry, listDate string
		if err := rows.Scan(&c.Code, &c.Underlying, &typ, &c.Strike, &expiry, &listDate, &c.Unit); err != nil {
			return nil, err
		}
		c.Type = models.OptionType(typ)
		if c.Expiry, err = time.Parse(dateLayout, expiry); err != nil {
			return nil, err
		}
		if listDate != "" {
			if c.ListDate, err = time.Parse(dateLayout, listDate); err != nil {
				return nil, err
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveQuotes upserts daily option quotes. A quote without a provider implied
// vol is stored as NULL, preserving the reported-vs-missing distinction.
func (s *SQLiteStore) SaveQuotes(ctx context.Context, quotes []models.OptionQuote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO option_quotes (code, date, close, implied_vol)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range quotes {
		var iv any
		if q.HasImpliedVol {
			iv = q.ImpliedVol
		}
		if _, err := stmt.ExecContext(ctx, q.Code, q.Date.Format(dateLayout), q.Close, iv); err != nil {
			return fmt.Errorf("saving quote %s %s: %w", q.Code, q.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// GetQuotes returns all quotes in [from, to] for an underlying's contracts.
func (s *SQLiteStore) GetQuotes(ctx context.Context, underlying string, from, to time.Time) ([]models.OptionQuote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.code, q.date, q.close, q.implied_vol
		FROM option_quotes q
		JOIN option_contracts c ON c.code = q.code
		WHERE c.underlying = ? AND q.date >= ? AND q.date <= ?
		ORDER BY q.code, q.date`,
		underlying, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OptionQuote
	for rows.Next() {
		var q models.OptionQuote
		var date string
		var iv sql.NullFloat64
		if err := rows.Scan(&q.Code, &date, &q.Close, &iv); err != nil {
			return nil, err
		}
		if q.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, err
		}
		if iv.Valid {
			q.ImpliedVol = iv.Float64
			q.HasImpliedVol = true
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// BuildSnapshot assembles the immutable per-run view for one underlying. The
// option expiration may fall just past the requested window, so quotes are
// fetched with a trailing margin.
func (s *SQLiteStore) BuildSnapshot(ctx context.Context, underlying string, from, to time.Time) (*marketdata.Snapshot, error) {
	bars, err := s.GetCandles(ctx, underlying, from, to)
	if err != nil {
		return nil, err
	}
	contracts, err := s.GetContracts(ctx, underlying)
	if err != nil {
		return nil, err
	}
	quotes, err := s.GetQuotes(ctx, underlying, from, to.AddDate(0, 2, 0))
	if err != nil {
		return nil, err
	}
	return marketdata.NewSnapshot(underlying, bars, contracts, quotes)
}

// SaveBacktest persists a run summary as JSON.
func (s *SQLiteStore) SaveBacktest(ctx context.Context, kind, name string, summary any) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO backtests (kind, name, summary) VALUES (?, ?, ?)`,
		kind, name, string(payload))
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
