package venue

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"bookflow/models"
)

// MaxDepth bounds each side of a parsed book.
const MaxDepth = 25

// Adapter carries everything venue-specific: endpoint, symbol translation,
// subscription and heartbeat payloads, and raw-frame parsing. Adding a venue
// means adding an implementation, not editing a shared conditional.
type Adapter interface {
	// Name identifies the venue.
	Name() models.Venue
	// Endpoint is the streaming endpoint for market-data subscriptions.
	Endpoint() string
	// TranslateSymbol maps a canonical symbol (e.g. "BTC-USD") to the
	// venue-native instrument id.
	TranslateSymbol(symbol string) string
	// SubscribeMessage builds the subscription request for a native symbol.
	SubscribeMessage(nativeSymbol string) ([]byte, error)
	// HeartbeatMessage builds the keepalive payload. Called once per beat so
	// venues that need a fresh request id get one.
	HeartbeatMessage() ([]byte, error)
	// Parse normalizes a raw frame into an orderbook snapshot. Pong replies,
	// subscription acknowledgements and malformed payloads yield nil.
	Parse(raw []byte) *models.Orderbook
	// Limiter enforces the venue's advisory public-data request budget on
	// outbound writes.
	Limiter() *rate.Limiter
}

// ForVenue returns a fresh adapter for the given venue.
func ForVenue(v models.Venue) (Adapter, error) {
	switch v {
	case models.VenueOKX:
		return NewOKX(), nil
	case models.VenueBybit:
		return NewBybit(), nil
	case models.VenueDeribit:
		return NewDeribit(), nil
	}
	return nil, fmt.Errorf("no adapter for venue %q", v)
}

// All returns one adapter per supported venue, keyed by venue.
func All() map[models.Venue]Adapter {
	out := make(map[models.Venue]Adapter, len(models.AllVenues()))
	for _, v := range models.AllVenues() {
		a, err := ForVenue(v)
		if err != nil {
			continue
		}
		out[v] = a
	}
	return out
}

// stringLevels coerces venue-native [price, size] string pairs into typed
// levels, dropping malformed or non-positive entries and truncating to depth.
func stringLevels(raw [][]string, depth int) []models.OrderbookLevel {
	out := make([]models.OrderbookLevel, 0, depth)
	for _, lvl := range raw {
		if len(out) >= depth {
			break
		}
		if len(lvl) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(lvl[0], 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseFloat(lvl[1], 64)
		if err != nil {
			continue
		}
		if price <= 0 || size <= 0 {
			continue
		}
		out = append(out, models.OrderbookLevel{Price: price, Size: size})
	}
	return out
}

// numericLevels filters already-numeric [price, size] pairs the same way.
func numericLevels(raw [][]float64, depth int) []models.OrderbookLevel {
	out := make([]models.OrderbookLevel, 0, depth)
	for _, lvl := range raw {
		if len(out) >= depth {
			break
		}
		if len(lvl) < 2 {
			continue
		}
		if lvl[0] <= 0 || lvl[1] <= 0 {
			continue
		}
		out = append(out, models.OrderbookLevel{Price: lvl[0], Size: lvl[1]})
	}
	return out
}

func receiveTime() int64 {
	return time.Now().UnixMilli()
}
