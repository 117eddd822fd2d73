package models

// Venue identifies one of the supported exchanges. The set is fixed at
// process start; connection parameters live in the venue adapters.
type Venue string

const (
	VenueOKX     Venue = "okx"
	VenueBybit   Venue = "bybit"
	VenueDeribit Venue = "deribit"
)

// AllVenues returns the supported venues in display order.
func AllVenues() []Venue {
	return []Venue{VenueOKX, VenueBybit, VenueDeribit}
}

// Valid reports whether v is one of the supported venues.
func (v Venue) Valid() bool {
	switch v {
	case VenueOKX, VenueBybit, VenueDeribit:
		return true
	}
	return false
}

// ConnStatus is the observable state of a venue connection.
type ConnStatus string

const (
	StatusDisconnected ConnStatus = "disconnected"
	StatusConnecting   ConnStatus = "connecting"
	StatusConnected    ConnStatus = "connected"
	StatusError        ConnStatus = "error"
)

// OrderbookLevel represents a single price level in the orderbook.
type OrderbookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Orderbook is an immutable snapshot of one venue's book. Bids are strictly
// descending by price, asks strictly ascending, all prices and sizes positive.
type Orderbook struct {
	Bids      []OrderbookLevel `json:"bids"`
	Asks      []OrderbookLevel `json:"asks"`
	Timestamp int64            `json:"timestamp"` // milliseconds since epoch
}

// BestBid returns the highest bid level, or false when the side is empty.
func (o *Orderbook) BestBid() (OrderbookLevel, bool) {
	if len(o.Bids) == 0 {
		return OrderbookLevel{}, false
	}
	return o.Bids[0], true
}

// BestAsk returns the lowest ask level, or false when the side is empty.
func (o *Orderbook) BestAsk() (OrderbookLevel, bool) {
	if len(o.Asks) == 0 {
		return OrderbookLevel{}, false
	}
	return o.Asks[0], true
}

// Spread returns best ask minus best bid. A zero or negative spread means the
// snapshot is stale or crossed; callers treat it as a data-quality signal.
func (o *Orderbook) Spread() (float64, bool) {
	bid, okBid := o.BestBid()
	ask, okAsk := o.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask.Price - bid.Price, true
}
