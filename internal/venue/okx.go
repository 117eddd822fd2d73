package venue

import (
	"encoding/json"
	"strings"

	"golang.org/x/time/rate"

	"bookflow/models"
)

// OKX streams books over the public v5 websocket. Levels arrive as strings
// and require numeric coercion; the keepalive is the literal text "ping".
type OKX struct {
	limiter *rate.Limiter
}

func NewOKX() *OKX {
	// Advisory budget for public data: 20 requests per 2 seconds.
	return &OKX{limiter: rate.NewLimiter(rate.Limit(10), 20)}
}

func (o *OKX) Name() models.Venue { return models.VenueOKX }

func (o *OKX) Endpoint() string { return "wss://ws.okx.com:8443/ws/v5/public" }

// TranslateSymbol replaces the "USD" suffix with "USDT": BTC-USD -> BTC-USDT.
func (o *OKX) TranslateSymbol(symbol string) string {
	if strings.HasSuffix(symbol, "USD") {
		return symbol[:len(symbol)-3] + "USDT"
	}
	return symbol
}

type okxSubscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type okxSubscribeRequest struct {
	Op   string            `json:"op"`
	Args []okxSubscribeArg `json:"args"`
}

func (o *OKX) SubscribeMessage(nativeSymbol string) ([]byte, error) {
	return json.Marshal(okxSubscribeRequest{
		Op:   "subscribe",
		Args: []okxSubscribeArg{{Channel: "books", InstID: nativeSymbol}},
	})
}

func (o *OKX) HeartbeatMessage() ([]byte, error) {
	return []byte("ping"), nil
}

func (o *OKX) Limiter() *rate.Limiter { return o.limiter }

type okxBookMessage struct {
	Event string `json:"event"`
	Arg   struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data []struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
		Ts   string     `json:"ts"`
	} `json:"data"`
}

// Parse handles three frame shapes: the literal "pong" reply, event
// acknowledgements ({"event":"subscribe",...}) and book updates.
func (o *OKX) Parse(raw []byte) *models.Orderbook {
	if string(raw) == "pong" {
		return nil
	}
	var msg okxBookMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}
	if msg.Event != "" || len(msg.Data) == 0 {
		return nil
	}
	data := msg.Data[0]
	bids := stringLevels(data.Bids, MaxDepth)
	asks := stringLevels(data.Asks, MaxDepth)
	if len(bids) == 0 && len(asks) == 0 {
		return nil
	}
	return &models.Orderbook{Bids: bids, Asks: asks, Timestamp: receiveTime()}
}
