package venue

import (
	"encoding/json"
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"

	"bookflow/models"
)

// Deribit speaks JSON-RPC 2.0 over its v2 websocket. Book levels arrive
// already numeric; every outbound call needs a fresh request id.
type Deribit struct {
	limiter *rate.Limiter
	nextID  atomic.Int64
}

func NewDeribit() *Deribit {
	// Advisory budget for public data: 20 requests per second.
	return &Deribit{limiter: rate.NewLimiter(rate.Limit(20), 20)}
}

func (d *Deribit) Name() models.Venue { return models.VenueDeribit }

func (d *Deribit) Endpoint() string { return "wss://www.deribit.com/ws/api/v2" }

// TranslateSymbol keeps the base currency and appends "-PERPETUAL":
// BTC-USD -> BTC-PERPETUAL.
func (d *Deribit) TranslateSymbol(symbol string) string {
	base := symbol
	if i := strings.Index(symbol, "-"); i >= 0 {
		base = symbol[:i]
	}
	return base + "-PERPETUAL"
}

type deribitRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

func (d *Deribit) SubscribeMessage(nativeSymbol string) ([]byte, error) {
	return json.Marshal(deribitRequest{
		JSONRPC: "2.0",
		ID:      d.nextID.Add(1),
		Method:  "public/subscribe",
		Params: map[string][]string{
			"channels": {"book." + nativeSymbol + ".100ms"},
		},
	})
}

func (d *Deribit) HeartbeatMessage() ([]byte, error) {
	return json.Marshal(deribitRequest{
		JSONRPC: "2.0",
		ID:      d.nextID.Add(1),
		Method:  "public/ping",
	})
}

func (d *Deribit) Limiter() *rate.Limiter { return d.limiter }

type deribitNotification struct {
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Params struct {
		Channel string `json:"channel"`
		Data    struct {
			Bids [][]float64 `json:"bids"`
			Asks [][]float64 `json:"asks"`
		} `json:"data"`
	} `json:"params"`
}

// Parse discards JSON-RPC call results (subscription confirms and ping
// replies carry "result", not "method") and extracts book notifications.
func (d *Deribit) Parse(raw []byte) *models.Orderbook {
	var msg deribitNotification
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}
	if msg.Method != "subscription" {
		return nil
	}
	if !strings.HasPrefix(msg.Params.Channel, "book.") {
		return nil
	}
	bids := numericLevels(msg.Params.Data.Bids, MaxDepth)
	asks := numericLevels(msg.Params.Data.Asks, MaxDepth)
	if len(bids) == 0 && len(asks) == 0 {
		return nil
	}
	return &models.Orderbook{Bids: bids, Asks: asks, Timestamp: receiveTime()}
}
