package models

import "testing"

func TestOrderbookHelpers(t *testing.T) {
	empty := &Orderbook{}
	if _, ok := empty.BestBid(); ok {
		t.Errorf("empty book must have no best bid")
	}
	if _, ok := empty.Spread(); ok {
		t.Errorf("empty book must have no spread")
	}

	book := &Orderbook{
		Bids: []OrderbookLevel{{Price: 50000, Size: 1}, {Price: 49999, Size: 2}},
		Asks: []OrderbookLevel{{Price: 50001, Size: 1}},
	}
	bid, ok := book.BestBid()
	if !ok || bid.Price != 50000 {
		t.Errorf("unexpected best bid: %+v", bid)
	}
	ask, ok := book.BestAsk()
	if !ok || ask.Price != 50001 {
		t.Errorf("unexpected best ask: %+v", ask)
	}
	spread, ok := book.Spread()
	if !ok || spread != 1 {
		t.Errorf("unexpected spread: %v", spread)
	}
}

func TestOrderRequestValidate(t *testing.T) {
	valid := OrderRequest{
		Venue:    VenueOKX,
		Symbol:   "BTC-USD",
		Type:     OrderTypeLimit,
		Side:     SideBuy,
		Price:    50000,
		Quantity: 1,
		Timing:   TimingImmediate,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(r *OrderRequest)
	}{
		{"unknown venue", func(r *OrderRequest) { r.Venue = "binance" }},
		{"empty symbol", func(r *OrderRequest) { r.Symbol = "" }},
		{"unknown type", func(r *OrderRequest) { r.Type = "stop" }},
		{"unknown side", func(r *OrderRequest) { r.Side = "short" }},
		{"zero quantity", func(r *OrderRequest) { r.Quantity = 0 }},
		{"limit without price", func(r *OrderRequest) { r.Price = 0 }},
		{"market with price", func(r *OrderRequest) { r.Type = OrderTypeMarket }},
	}
	for _, tc := range cases {
		req := valid
		tc.mutate(&req)
		if err := req.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestVenueValid(t *testing.T) {
	for _, v := range AllVenues() {
		if !v.Valid() {
			t.Errorf("venue %s should be valid", v)
		}
	}
	if Venue("kraken").Valid() {
		t.Errorf("unknown venue must be invalid")
	}
}
