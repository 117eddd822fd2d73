package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"bookflow/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEstimateImmediateSmallOrder(t *testing.T) {
	order := models.SimulatedOrder{
		Type:     models.OrderTypeLimit,
		Side:     models.SideBuy,
		Price:    100,
		Quantity: 1,
		Timing:   models.TimingImmediate,
	}
	m := Estimate(order)

	if !almostEqual(m.MarketImpact, 0.012) {
		t.Errorf("market impact: got %v, want 0.012", m.MarketImpact)
	}
	if !almostEqual(m.FillPercentage, 99.88) {
		t.Errorf("fill percentage: got %v, want 99.88", m.FillPercentage)
	}
	if !almostEqual(m.Slippage, 0.12) {
		t.Errorf("slippage: got %v, want 0.12", m.Slippage)
	}
	if m.EstimatedFillTime != "<1s" {
		t.Errorf("fill time: got %q, want <1s", m.EstimatedFillTime)
	}
	if len(m.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", m.Warnings)
	}
}

func TestEstimateHighImpactWarning(t *testing.T) {
	order := models.SimulatedOrder{
		Type:     models.OrderTypeMarket,
		Side:     models.SideSell,
		Quantity: 200,
		Timing:   models.TimingImmediate,
	}
	m := Estimate(order)

	if !almostEqual(m.MarketImpact, 2.4) {
		t.Errorf("market impact: got %v, want 2.4", m.MarketImpact)
	}
	if !almostEqual(m.FillPercentage, 76) {
		t.Errorf("fill percentage: got %v, want 76", m.FillPercentage)
	}
	found := false
	for _, w := range m.Warnings {
		if w == warnHighImpact {
			found = true
		}
		if w == warnLowFill {
			t.Errorf("fill 76 must not trigger the low-fill warning")
		}
	}
	if !found {
		t.Errorf("expected high impact warning, got %v", m.Warnings)
	}
}

func TestEstimateFillPercentageFloor(t *testing.T) {
	order := models.SimulatedOrder{Quantity: 5000, Timing: models.Timing5s}
	m := Estimate(order)
	if m.FillPercentage != 20 {
		t.Errorf("fill percentage floor: got %v, want 20", m.FillPercentage)
	}
}

func TestEstimateWarningOrder(t *testing.T) {
	// Large delayed order trips every warning; order must be fixed.
	order := models.SimulatedOrder{
		Type:     models.OrderTypeLimit,
		Side:     models.SideBuy,
		Price:    100,
		Quantity: 500,
		Timing:   models.Timing5s,
	}
	m := Estimate(order)

	want := []string{warnHighImpact, warnSlippage, warnLowFill, warnConsiderImmediate}
	if len(m.Warnings) != len(want) {
		t.Fatalf("warnings: got %v, want %v", m.Warnings, want)
	}
	for i, w := range want {
		if m.Warnings[i] != w {
			t.Errorf("warning %d: got %q, want %q", i, m.Warnings[i], w)
		}
	}
}

func TestEstimateTimingMultipliers(t *testing.T) {
	cases := []struct {
		timing models.Timing
		want   float64
	}{
		{models.TimingImmediate, 1.2},
		{models.Timing5s, 1.0},
		{models.Timing10s, 0.9},
		{models.Timing30s, 0.8},
		{models.Timing("later"), 1.0},
	}
	for _, tc := range cases {
		order := models.SimulatedOrder{Quantity: 100, Timing: tc.timing}
		m := Estimate(order)
		if !almostEqual(m.MarketImpact, tc.want) {
			t.Errorf("timing %s: impact %v, want %v", tc.timing, m.MarketImpact, tc.want)
		}
	}
}

func TestEstimateFillTimeEchoesTiming(t *testing.T) {
	for _, timing := range []models.Timing{models.Timing5s, models.Timing10s, models.Timing30s} {
		m := Estimate(models.SimulatedOrder{Quantity: 1, Timing: timing})
		if m.EstimatedFillTime != string(timing) {
			t.Errorf("timing %s: fill time %q", timing, m.EstimatedFillTime)
		}
	}
}

func TestSimulateMintsOrder(t *testing.T) {
	s := NewSimulator(10 * time.Millisecond)

	req := models.OrderRequest{
		Venue:    models.VenueOKX,
		Symbol:   "BTC-USD",
		Type:     models.OrderTypeMarket,
		Side:     models.SideBuy,
		Quantity: 1,
		Timing:   models.Timing30s,
	}
	order, metrics, err := s.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if order.ID == "" {
		t.Errorf("order must carry a generated id")
	}
	if order.CreatedAt.IsZero() {
		t.Errorf("order must carry a creation time")
	}
	if metrics == nil {
		t.Fatalf("metrics must be computed")
	}
	if s.LastMetrics() != metrics || s.LastOrder() != order {
		t.Errorf("latest simulation must be retained")
	}

	// A second simulation supersedes the first.
	order2, _, err := s.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if order2.ID == order.ID {
		t.Errorf("each simulation must mint a fresh id")
	}
	if s.LastOrder() != order2 {
		t.Errorf("latest simulation must supersede the previous one")
	}
}

func TestSimulateValidatesRequest(t *testing.T) {
	s := NewSimulator(10 * time.Millisecond)

	_, _, err := s.Simulate(context.Background(), models.OrderRequest{
		Venue:    models.VenueOKX,
		Symbol:   "BTC-USD",
		Type:     models.OrderTypeMarket,
		Side:     models.SideBuy,
		Quantity: 0,
		Timing:   models.TimingImmediate,
	})
	if err == nil {
		t.Fatalf("expected validation error for zero quantity")
	}
}

func TestSimulateDelayCapAndCancellation(t *testing.T) {
	s := NewSimulator(50 * time.Millisecond)

	// The 30s timing must be capped by the configured max delay.
	start := time.Now()
	if _, _, err := s.Simulate(context.Background(), models.OrderRequest{
		Venue:    models.VenueDeribit,
		Symbol:   "BTC-USD",
		Type:     models.OrderTypeMarket,
		Side:     models.SideSell,
		Quantity: 1,
		Timing:   models.Timing30s,
	}); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("delay not capped: %v", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := s.Simulate(ctx, models.OrderRequest{
		Venue:    models.VenueOKX,
		Symbol:   "BTC-USD",
		Type:     models.OrderTypeMarket,
		Side:     models.SideBuy,
		Quantity: 1,
		Timing:   models.Timing5s,
	})
	if err == nil {
		t.Fatalf("expected context cancellation error")
	}
}
