package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"wheel-backtest/internal/models"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "market.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCandleRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	candles := []models.Candle{
		{Date: date("2024-01-02"), Open: 3.0, High: 3.1, Low: 2.9, Close: 3.05, Volume: 12345},
		{Date: date("2024-01-03"), Open: 3.05, High: 3.2, Low: 3.0, Close: 3.15, Volume: 23456},
	}
	if err := s.SaveCandles(ctx, "510050", candles); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetCandles(ctx, "510050", date("2024-01-01"), date("2024-01-31"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candles, want 2", len(got))
	}
	if got[0].Close != 3.05 || got[1].Close != 3.15 {
		t.Errorf("closes = %v, %v", got[0].Close, got[1].Close)
	}
	if !got[0].Date.Equal(date("2024-01-02")) {
		t.Errorf("date = %v", got[0].Date)
	}

	// Upsert replaces the existing row rather than duplicating it.
	candles[0].Close = 3.06
	if err := s.SaveCandles(ctx, "510050", candles[:1]); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetCandles(ctx, "510050", date("2024-01-01"), date("2024-01-31"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Close != 3.06 {
		t.Errorf("after upsert: %d candles, close = %v", len(got), got[0].Close)
	}

	// Other symbols stay separate.
	if other, _ := s.GetCandles(ctx, "510300", date("2024-01-01"), date("2024-01-31")); len(other) != 0 {
		t.Errorf("unexpected candles for other symbol: %v", other)
	}
}

func TestContractRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	contracts := []models.OptionContract{
		{Code: "P2760", Underlying: "510050", Type: models.OptionPut, Strike: 2.76,
			Expiry: date("2024-01-24"), ListDate: date("2023-12-01"), Unit: 10000},
		{Code: "C2800", Underlying: "510050", Type: models.OptionCall, Strike: 2.80,
			Expiry: date("2024-02-21"), Unit: 10000},
	}
	if err := s.SaveContracts(ctx, contracts); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetContracts(ctx, "510050")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d contracts, want 2", len(got))
	}
	byCode := map[string]models.OptionContract{}
	for _, c := range got {
		byCode[c.Code] = c
	}
	p := byCode["P2760"]
	if p.Type != models.OptionPut || p.Strike != 2.76 || !p.Expiry.Equal(date("2024-01-24")) {
		t.Errorf("put contract round-trip: %+v", p)
	}
	if !p.ListDate.Equal(date("2023-12-01")) {
		t.Errorf("list date = %v", p.ListDate)
	}
	// An absent list date stays zero.
	if !byCode["C2800"].ListDate.IsZero() {
		t.Errorf("empty list date came back as %v", byCode["C2800"].ListDate)
	}
}

func TestQuoteRoundTripPreservesMissingVol(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	contracts := []models.OptionContract{
		{Code: "P2760", Underlying: "510050", Type: models.OptionPut, Strike: 2.76,
			Expiry: date("2024-01-24"), Unit: 10000},
	}
	if err := s.SaveContracts(ctx, contracts); err != nil {
		t.Fatal(err)
	}

	quotes := []models.OptionQuote{
		{Code: "P2760", Date: date("2024-01-02"), Close: 0.05, ImpliedVol: 0.31, HasImpliedVol: true},
		{Code: "P2760", Date: date("2024-01-03"), Close: 0.048},
	}
	if err := s.SaveQuotes(ctx, quotes); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetQuotes(ctx, "510050", date("2024-01-01"), date("2024-01-31"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d quotes, want 2", len(got))
	}
	if !got[0].HasImpliedVol || got[0].ImpliedVol != 0.31 {
		t.Errorf("provider vol round-trip: %+v", got[0])
	}
	if got[1].HasImpliedVol {
		t.Errorf("missing vol came back as reported: %+v", got[1])
	}
}

func TestBuildSnapshot(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	candles := []models.Candle{
		{Date: date("2024-01-02"), Close: 3.0},
		{Date: date("2024-01-03"), Close: 3.1},
	}
	if err := s.SaveCandles(ctx, "510050", candles); err != nil {
		t.Fatal(err)
	}
	contracts := []models.OptionContract{
		{Code: "P2760", Underlying: "510050", Type: models.OptionPut, Strike: 2.76,
			Expiry: date("2024-01-24"), Unit: 10000},
	}
	if err := s.SaveContracts(ctx, contracts); err != nil {
		t.Fatal(err)
	}
	// Quote past the window end but before expiry; the snapshot fetch margin
	// must pick it up.
	quotes := []models.OptionQuote{
		{Code: "P2760", Date: date("2024-01-20"), Close: 0.02},
	}
	if err := s.SaveQuotes(ctx, quotes); err != nil {
		t.Fatal(err)
	}

	snap, err := s.BuildSnapshot(ctx, "510050", date("2024-01-01"), date("2024-01-10"))
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Days) != 2 {
		t.Errorf("snapshot has %d days, want 2", len(snap.Days))
	}
	if c, ok := snap.Close(date("2024-01-03")); !ok || c != 3.1 {
		t.Errorf("close = (%v, %v), want 3.1", c, ok)
	}
	if len(snap.Contracts) != 1 {
		t.Errorf("snapshot has %d contracts, want 1", len(snap.Contracts))
	}
	if q, ok := snap.Quote("P2760", date("2024-01-20")); !ok || q.Close != 0.02 {
		t.Errorf("trailing quote = (%v, %v), want it inside the fetch margin", q, ok)
	}

	if _, err := s.BuildSnapshot(ctx, "UNKNOWN", date("2024-01-01"), date("2024-01-10")); err == nil {
		t.Error("expected error for symbol without bars")
	}
}

func TestSaveBacktest(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	summary := map[string]any{"ending_equity": 31200.0, "assignments": 2}
	if err := s.SaveBacktest(ctx, "wheel", "510050", summary); err != nil {
		t.Fatal(err)
	}

	var kind, name, payload string
	row := s.db.QueryRow(`SELECT kind, name, summary FROM backtests ORDER BY id DESC LIMIT 1`)
	if err := row.Scan(&kind, &name, &payload); err != nil {
		t.Fatal(err)
	}
	if kind != "wheel" || name != "510050" {
		t.Errorf("persisted (%s, %s)", kind, name)
	}
	if payload == "" {
		t.Error("empty summary payload")
	}
}
