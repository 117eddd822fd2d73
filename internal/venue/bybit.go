package venue

import (
	"encoding/json"
	"strings"

	"golang.org/x/time/rate"

	"bookflow/models"
)

// Bybit streams books over the v5 public spot websocket. Levels arrive as
// strings; keepalive and acknowledgements are JSON envelopes carrying "op".
type Bybit struct {
	limiter *rate.Limiter
}

func NewBybit() *Bybit {
	// Advisory budget for public data: 10 requests per second.
	return &Bybit{limiter: rate.NewLimiter(rate.Limit(10), 10)}
}

func (b *Bybit) Name() models.Venue { return models.VenueBybit }

func (b *Bybit) Endpoint() string { return "wss://stream.bybit.com/v5/public/spot" }

// TranslateSymbol replaces the "USD" suffix with "USDT" and strips the
// separating dash: BTC-USD -> BTCUSDT.
func (b *Bybit) TranslateSymbol(symbol string) string {
	if strings.HasSuffix(symbol, "USD") {
		symbol = symbol[:len(symbol)-3] + "USDT"
	}
	return strings.ReplaceAll(symbol, "-", "")
}

type bybitRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

func (b *Bybit) SubscribeMessage(nativeSymbol string) ([]byte, error) {
	return json.Marshal(bybitRequest{
		Op:   "subscribe",
		Args: []string{"orderbook.1." + nativeSymbol},
	})
}

func (b *Bybit) HeartbeatMessage() ([]byte, error) {
	return json.Marshal(bybitRequest{Op: "ping"})
}

func (b *Bybit) Limiter() *rate.Limiter { return b.limiter }

type bybitBookMessage struct {
	Op      string `json:"op"`
	Success *bool  `json:"success"`
	RetMsg  string `json:"ret_msg"`
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Data    struct {
		Symbol string     `json:"s"`
		Bids   [][]string `json:"b"`
		Asks   [][]string `json:"a"`
	} `json:"data"`
}

// Parse discards pong replies and subscribe acknowledgements (both carry "op"
// or "success") before extracting book updates from topic frames.
func (b *Bybit) Parse(raw []byte) *models.Orderbook {
	var msg bybitBookMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}
	if msg.Op != "" || msg.Success != nil {
		return nil
	}
	if !strings.HasPrefix(msg.Topic, "orderbook.") {
		return nil
	}
	bids := stringLevels(msg.Data.Bids, MaxDepth)
	asks := stringLevels(msg.Data.Asks, MaxDepth)
	if len(bids) == 0 && len(asks) == 0 {
		return nil
	}
	return &models.Orderbook{Bids: bids, Asks: asks, Timestamp: receiveTime()}
}
