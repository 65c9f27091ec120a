package store

import (
	"os"
	"path/filepath"
	"testing"

	"wheel-backtest/internal/models"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadCandlesCSV(t *testing.T) {
	path := writeTemp(t, "candles.csv", `symbol,date,open,high,low,close,volume
510050,2024-01-02,3.0,3.1,2.9,3.05,12345
510050,2024-01-03,3.05,3.2,3.0,3.15,23456
510300,2024-01-02,4.0,4.1,3.9,4.05,999
`)
	got, err := ReadCandlesCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d symbols, want 2", len(got))
	}
	if len(got["510050"]) != 2 || got["510050"][1].Close != 3.15 {
		t.Errorf("510050 candles = %v", got["510050"])
	}
	if len(got["510300"]) != 1 {
		t.Errorf("510300 candles = %v", got["510300"])
	}

	bad := writeTemp(t, "bad.csv", "symbol,date,open,high,low,close,volume\nX,02-01-2024,1,1,1,1,1\n")
	if _, err := ReadCandlesCSV(bad); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestReadContractsCSV(t *testing.T) {
	path := writeTemp(t, "contracts.csv", `code,underlying,type,strike,expiry,list_date,unit
P2760,510050,PUT,2.76,2024-01-24,2023-12-01,10000
C2800,510050,CALL,2.80,2024-02-21,,10000
`)
	got, err := ReadContractsCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d contracts, want 2", len(got))
	}
	if got[0].Type != models.OptionPut || got[0].Strike != 2.76 {
		t.Errorf("first contract = %+v", got[0])
	}
	if !got[1].ListDate.IsZero() {
		t.Errorf("empty list_date parsed as %v", got[1].ListDate)
	}

	bad := writeTemp(t, "bad.csv", "code,underlying,type,strike,expiry,list_date,unit\nX,510050,STRADDLE,1,2024-01-24,,10000\n")
	if _, err := ReadContractsCSV(bad); err == nil {
		t.Error("expected error for unknown contract type")
	}
}

func TestReadQuotesCSV(t *testing.T) {
	path := writeTemp(t, "quotes.csv", `code,date,close,implied_vol
P2760,2024-01-02,0.05,0.31
P2760,2024-01-03,0.048,
`)
	got, err := ReadQuotesCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d quotes, want 2", len(got))
	}
	if !got[0].HasImpliedVol || got[0].ImpliedVol != 0.31 {
		t.Errorf("first quote = %+v, want provider vol", got[0])
	}
	if got[1].HasImpliedVol {
		t.Errorf("blank implied_vol parsed as reported: %+v", got[1])
	}
}
