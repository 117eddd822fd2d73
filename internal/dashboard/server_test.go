package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookflow/config"
	"bookflow/internal/book"
	"bookflow/internal/feed"
	"bookflow/internal/sim"
	"bookflow/internal/synthetic"
	"bookflow/models"
)

func testServer(t *testing.T) (*Server, *book.Store) {
	t.Helper()

	cfg := &config.Config{
		Market:    config.MarketConfig{Symbol: "BTC-USD", Venues: []string{"okx", "bybit", "deribit"}},
		Dashboard: config.DashboardConfig{Enabled: true, Address: ":0"},
	}
	store := book.NewStore()
	supervisor := feed.NewSupervisor(cfg, store, nil, synthetic.NewGeneratorSeeded(7))
	simulator := sim.NewSimulator(10 * time.Millisecond)

	srv := NewServer(cfg.Dashboard, store, supervisor, simulator)
	if srv == nil {
		t.Fatalf("expected server when dashboard is enabled")
	}
	return srv, store
}

func TestNewServerDisabled(t *testing.T) {
	if srv := NewServer(config.DashboardConfig{Enabled: false}, nil, nil, nil); srv != nil {
		t.Fatalf("disabled dashboard must yield a nil server")
	}
}

func TestOrderbooksEndpoint(t *testing.T) {
	srv, store := testServer(t)
	router := srv.buildRouter()

	store.Put(models.VenueOKX, &models.Orderbook{
		Bids:      []models.OrderbookLevel{{Price: 50000, Size: 1}},
		Asks:      []models.OrderbookLevel{{Price: 50001, Size: 2}},
		Timestamp: 1700000000000,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orderbooks", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}

	var resp struct {
		Symbol     string                       `json:"symbol"`
		Orderbooks map[string]*models.Orderbook `json:"orderbooks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Symbol != "BTC-USD" {
		t.Errorf("unexpected symbol: %s", resp.Symbol)
	}
	if resp.Orderbooks["okx"] == nil || resp.Orderbooks["okx"].Bids[0].Price != 50000 {
		t.Errorf("okx book missing or wrong: %+v", resp.Orderbooks["okx"])
	}
	if resp.Orderbooks["bybit"] != nil {
		t.Errorf("venues without data must be null")
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, store := testServer(t)
	router := srv.buildRouter()

	store.SetStatus(models.VenueDeribit, models.StatusConnected)
	store.SetError("deribit connection error: boom")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	router.ServeHTTP(w, req)

	var resp struct {
		ConnectionStatus map[string]string `json:"connection_status"`
		Error            *string           `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConnectionStatus["deribit"] != "connected" {
		t.Errorf("unexpected deribit status: %s", resp.ConnectionStatus["deribit"])
	}
	if resp.ConnectionStatus["okx"] != "disconnected" {
		t.Errorf("unexpected okx status: %s", resp.ConnectionStatus["okx"])
	}
	if resp.Error == nil || !strings.Contains(*resp.Error, "boom") {
		t.Errorf("last error not surfaced: %v", resp.Error)
	}
}

func TestSimulateEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"venue":"okx","symbol":"BTC-USD","type":"limit","side":"buy","price":100,"quantity":1,"timing":"immediate"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Order   *models.SimulatedOrder `json:"order"`
		Metrics *models.OrderMetrics   `json:"metrics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Order == nil || resp.Order.ID == "" {
		t.Fatalf("order must carry an id: %+v", resp.Order)
	}
	if resp.Metrics == nil || resp.Metrics.EstimatedFillTime != "<1s" {
		t.Fatalf("unexpected metrics: %+v", resp.Metrics)
	}

	// The latest result is retained for the metrics endpoint.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	router.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), resp.Order.ID) {
		t.Errorf("metrics endpoint must return the latest simulation")
	}
}

func TestSimulateEndpointRejectsBadRequest(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"venue":"okx","symbol":"BTC-USD","type":"limit","side":"buy","price":100,"quantity":0,"timing":"immediate"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
}

func TestNormalizeAddress(t *testing.T) {
	cases := map[string]string{
		"":                      "0.0.0.0:8085",
		":9090":                 "0.0.0.0:9090",
		"127.0.0.1:8085":        "127.0.0.1:8085",
		"http://localhost:8085": "localhost:8085",
		"example.com":           "example.com:8085",
	}
	for in, want := range cases {
		if got := normalizeAddress(in); got != want {
			t.Errorf("normalizeAddress(%q): got %q, want %q", in, got, want)
		}
	}
}
