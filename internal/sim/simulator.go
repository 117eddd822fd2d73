package sim

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookflow/logger"
	"bookflow/models"
)

// Simulator runs order simulations and retains the most recent result for
// the downstream surface. Orders are never transmitted anywhere.
type Simulator struct {
	maxDelay time.Duration
	log      *logger.Log

	mu          sync.RWMutex
	lastOrder   *models.SimulatedOrder
	lastMetrics *models.OrderMetrics
}

func NewSimulator(maxDelay time.Duration) *Simulator {
	if maxDelay <= 0 {
		maxDelay = time.Second
	}
	return &Simulator{
		maxDelay: maxDelay,
		log:      logger.GetLogger(),
	}
}

// timingDelay maps the timing choice to the artificial pause before a
// simulation returns. Purely for perceived realism; always capped.
func (s *Simulator) timingDelay(timing models.Timing) time.Duration {
	var nominal time.Duration
	switch timing {
	case models.Timing5s:
		nominal = 5 * time.Second
	case models.Timing10s:
		nominal = 10 * time.Second
	case models.Timing30s:
		nominal = 30 * time.Second
	default:
		nominal = 500 * time.Millisecond
	}
	if nominal > s.maxDelay {
		return s.maxDelay
	}
	return nominal
}

// Simulate validates the request, waits the timing-derived artificial delay,
// then mints an immutable SimulatedOrder and computes its metrics. The
// previous simulation is superseded wholesale.
func (s *Simulator) Simulate(ctx context.Context, req models.OrderRequest) (*models.SimulatedOrder, *models.OrderMetrics, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	select {
	case <-time.After(s.timingDelay(req.Timing)):
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	order := models.SimulatedOrder{
		ID:        uuid.NewString(),
		Venue:     req.Venue,
		Symbol:    req.Symbol,
		Type:      req.Type,
		Side:      req.Side,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Timing:    req.Timing,
		CreatedAt: time.Now(),
	}
	metrics := Estimate(order)

	s.mu.Lock()
	s.lastOrder = &order
	s.lastMetrics = &metrics
	s.mu.Unlock()

	s.log.WithComponent("simulator").WithFields(logger.Fields{
		"order_id":        order.ID,
		"venue":           order.Venue,
		"symbol":          order.Symbol,
		"quantity":        order.Quantity,
		"timing":          order.Timing,
		"market_impact":   metrics.MarketImpact,
		"fill_percentage": metrics.FillPercentage,
		"warnings":        len(metrics.Warnings),
	}).Info("order simulated")

	return &order, &metrics, nil
}

// LastMetrics returns the metrics of the most recent simulation, nil before
// the first one.
func (s *Simulator) LastMetrics() *models.OrderMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMetrics
}

// LastOrder returns the most recent simulated order, nil before the first.
func (s *Simulator) LastOrder() *models.SimulatedOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastOrder
}
