package synthetic

import (
	"math/rand"
	"sync"
	"time"

	"bookflow/models"
)

// Depth is the number of levels generated per side.
const Depth = 25

// venueBias skews reference prices so venues never render identical books.
var venueBias = map[models.Venue]float64{
	models.VenueOKX:     1.0,
	models.VenueBybit:   1.001,
	models.VenueDeribit: 0.999,
}

// basePrices maps canonical symbols to a plausible reference price.
var basePrices = map[string]float64{
	"BTC-USD": 50000,
	"ETH-USD": 3000,
	"SOL-USD": 150,
}

const fallbackBasePrice = 50000

// Generator produces plausible random orderbooks, used both as the
// network-failure fallback and as a standalone offline mode. Safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator() *Generator {
	return NewGeneratorSeeded(time.Now().UnixNano())
}

func NewGeneratorSeeded(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate builds Depth descending bid levels and Depth ascending ask levels
// around referencePrice*bias. Each level steps away from the previous one by
// a random offset in [2, 7) scaled by the level index, so sides are strictly
// monotonic on every call. Sizes are random in [0.1, 3.1).
func (g *Generator) Generate(referencePrice, bias float64) *models.Orderbook {
	g.mu.Lock()
	defer g.mu.Unlock()

	mid := referencePrice * bias
	bids := make([]models.OrderbookLevel, 0, Depth)
	asks := make([]models.OrderbookLevel, 0, Depth)

	bidPrice := mid
	askPrice := mid
	for i := 0; i < Depth; i++ {
		scale := float64(i + 1)
		bidPrice -= (2 + 5*g.rng.Float64()) * scale
		askPrice += (2 + 5*g.rng.Float64()) * scale

		// Small reference prices run out of room on the bid side; stop
		// early rather than emit non-positive levels.
		if bidPrice > 0 {
			bids = append(bids, models.OrderbookLevel{
				Price: bidPrice,
				Size:  0.1 + 3*g.rng.Float64(),
			})
		}
		asks = append(asks, models.OrderbookLevel{
			Price: askPrice,
			Size:  0.1 + 3*g.rng.Float64(),
		})
	}

	return &models.Orderbook{
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ForVenueAndSymbol resolves a reference price for the symbol (fixed table,
// unknown symbols fall back to 50000), applies +-$50 jitter and delegates to
// Generate with the venue's bias factor.
func (g *Generator) ForVenueAndSymbol(venue models.Venue, symbol string) *models.Orderbook {
	base, ok := basePrices[symbol]
	if !ok {
		base = fallbackBasePrice
	}

	g.mu.Lock()
	jitter := (g.rng.Float64() - 0.5) * 100
	g.mu.Unlock()

	bias, ok := venueBias[venue]
	if !ok {
		bias = 1.0
	}
	return g.Generate(base+jitter, bias)
}
