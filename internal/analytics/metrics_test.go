package analytics

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 99})
	want := []float64{0.10, -0.10}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Errorf("return %d = %v, want %v", i, got[i], want[i])
		}
	}
	if Returns([]float64{100}) != nil {
		t.Error("single point should yield no returns")
	}
}

func TestPeriodsPerYear(t *testing.T) {
	cases := []struct {
		f    Frequency
		want float64
	}{
		{Daily, 252},
		{Monthly, 12},
		{Yearly, 1},
	}
	for _, tc := range cases {
		if got := tc.f.PeriodsPerYear(); got != tc.want {
			t.Errorf("PeriodsPerYear(%v) = %v, want %v", tc.f, got, tc.want)
		}
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.01, -0.01}
	// Sample stdev of the alternating series: sqrt(4e-4 / 3).
	stdev := math.Sqrt(4e-4 / 3)

	vol, ok := AnnualizedVolatility(returns, Daily)
	if !ok {
		t.Fatal("expected ok")
	}
	if !almostEqual(vol, stdev*math.Sqrt(252), 1e-12) {
		t.Errorf("daily vol = %v, want %v", vol, stdev*math.Sqrt(252))
	}

	vol, _ = AnnualizedVolatility(returns, Yearly)
	if !almostEqual(vol, stdev, 1e-12) {
		t.Errorf("yearly vol = %v, want %v", vol, stdev)
	}

	if _, ok := AnnualizedVolatility(nil, Daily); ok {
		t.Error("empty returns should not be ok")
	}
}

func TestMaxDrawdown(t *testing.T) {
	dd, ok := MaxDrawdown([]float64{100, 120, 90, 110, 80})
	if !ok {
		t.Fatal("expected ok")
	}
	// Trough 80 against peak 120.
	if !almostEqual(dd, 80.0/120.0-1, 1e-12) {
		t.Errorf("drawdown = %v, want %v", dd, 80.0/120.0-1)
	}

	dd, ok = MaxDrawdown([]float64{100, 105, 110})
	if !ok || dd != 0 {
		t.Errorf("monotone series: got (%v, %v), want (0, true)", dd, ok)
	}

	if _, ok := MaxDrawdown([]float64{100}); ok {
		t.Error("single point should not be ok")
	}
}

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.015, 0.005}
	sharpe, ok := SharpeRatio(returns, Monthly, 0.02)
	if !ok {
		t.Fatal("expected ok")
	}
	vol, _ := AnnualizedVolatility(returns, Monthly)
	m := (0.01 + 0.02 + 0.015 + 0.005) / 4
	want := (m*12 - 0.02) / vol
	if !almostEqual(sharpe, want, 1e-12) {
		t.Errorf("sharpe = %v, want %v", sharpe, want)
	}

	// Zero volatility is undefined, not infinite.
	if _, ok := SharpeRatio([]float64{0.01, 0.01, 0.01}, Daily, 0.02); ok {
		t.Error("constant returns should not produce a Sharpe ratio")
	}
}

func TestComputeInsufficientData(t *testing.T) {
	for _, values := range [][]float64{nil, {100}} {
		m, ok := Compute(values, Daily, 0.02)
		if ok {
			t.Errorf("Compute(%v): expected ok=false", values)
		}
		if m != (Metrics{}) {
			t.Errorf("Compute(%v): expected zero metrics, got %+v", values, m)
		}
	}
}

func TestComputeTotalAndAnnualizedReturn(t *testing.T) {
	// Twelve monthly observations, +10% total.
	values := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 109.5, 110}
	m, ok := Compute(values, Monthly, 0.0)
	if !ok {
		t.Fatal("expected ok")
	}
	if !almostEqual(m.TotalReturn, 0.10, 1e-12) {
		t.Errorf("total return = %v, want 0.10", m.TotalReturn)
	}
	want := math.Pow(1.10, 12.0/11.0) - 1
	if !almostEqual(m.AnnualizedReturn, want, 1e-12) {
		t.Errorf("annualized return = %v, want %v", m.AnnualizedReturn, want)
	}
}
