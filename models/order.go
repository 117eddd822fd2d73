package models

import (
	"fmt"
	"time"
)

// OrderType distinguishes market from limit simulations.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderSide is the direction of a simulated order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// Timing is the user's execution-timing choice for a simulation.
type Timing string

const (
	TimingImmediate Timing = "immediate"
	Timing5s        Timing = "5s"
	Timing10s       Timing = "10s"
	Timing30s       Timing = "30s"
)

// OrderRequest carries the user's simulation parameters. It is validated
// before a SimulatedOrder is minted from it.
type OrderRequest struct {
	Venue    Venue     `json:"venue"`
	Symbol   string    `json:"symbol"`
	Type     OrderType `json:"type"`
	Side     OrderSide `json:"side"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Timing   Timing    `json:"timing"`
}

// Validate checks the request against the data-model constraints.
func (r OrderRequest) Validate() error {
	if !r.Venue.Valid() {
		return fmt.Errorf("unknown venue %q", r.Venue)
	}
	if r.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	switch r.Type {
	case OrderTypeMarket, OrderTypeLimit:
	default:
		return fmt.Errorf("unknown order type %q", r.Type)
	}
	switch r.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("unknown order side %q", r.Side)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %v", r.Quantity)
	}
	if r.Type == OrderTypeLimit && r.Price <= 0 {
		return fmt.Errorf("limit orders require a positive price, got %v", r.Price)
	}
	if r.Type == OrderTypeMarket && r.Price != 0 {
		return fmt.Errorf("market orders carry price 0, got %v", r.Price)
	}
	return nil
}

// SimulatedOrder is a hypothetical order. It is never transmitted anywhere
// and never mutated; each simulation supersedes the previous one.
type SimulatedOrder struct {
	ID        string    `json:"id"`
	Venue     Venue     `json:"venue"`
	Symbol    string    `json:"symbol"`
	Type      OrderType `json:"type"`
	Side      OrderSide `json:"side"`
	Price     float64   `json:"price"` // 0 for market orders
	Quantity  float64   `json:"quantity"`
	Timing    Timing    `json:"timing"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderMetrics is derived fresh for each SimulatedOrder.
type OrderMetrics struct {
	FillPercentage    float64  `json:"fill_percentage"` // within [20, 100]
	MarketImpact      float64  `json:"market_impact"`   // percentage, >= 0
	Slippage          float64  `json:"slippage"`        // absolute price units, >= 0
	EstimatedFillTime string   `json:"estimated_fill_time"`
	Warnings          []string `json:"warnings"`
}
