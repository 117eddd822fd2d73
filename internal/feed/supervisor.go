package feed

import (
	"context"
	"fmt"
	"sync"

	"bookflow/config"
	"bookflow/internal/book"
	"bookflow/internal/synthetic"
	"bookflow/internal/venue"
	"bookflow/logger"
	"bookflow/models"
)

// Supervisor owns one logical connection per (venue, symbol) key. The
// registry is explicit supervisor state, never package-level, so teardown
// and tests stay clean.
type Supervisor struct {
	cfg      *config.Config
	store    *book.Store
	dialer   Dialer
	gen      *synthetic.Generator
	adapters map[models.Venue]venue.Adapter
	log      *logger.Log

	mu      sync.Mutex
	ctx     context.Context
	running bool
	symbol  string
	conns   map[Key]*Connection
}

// NewSupervisor wires a supervisor over the given store. A nil dialer means
// the production websocket dialer; a nil generator means a time-seeded one.
func NewSupervisor(cfg *config.Config, store *book.Store, dialer Dialer, gen *synthetic.Generator) *Supervisor {
	if dialer == nil {
		dialer = NewWebsocketDialer()
	}
	if gen == nil {
		gen = synthetic.NewGenerator()
	}
	return &Supervisor{
		cfg:      cfg,
		store:    store,
		dialer:   dialer,
		gen:      gen,
		adapters: venue.All(),
		log:      logger.GetLogger(),
		symbol:   cfg.Market.Symbol,
		conns:    make(map[Key]*Connection),
	}
}

// Start activates one connection per enabled venue for the configured symbol.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("supervisor already running")
	}
	s.running = true
	s.ctx = ctx

	log := s.log.WithComponent("supervisor")
	log.WithFields(logger.Fields{
		"symbol": s.symbol,
		"venues": s.cfg.Market.Venues,
	}).Info("starting feed supervisor")

	for _, v := range s.cfg.Venues() {
		s.activateLocked(v)
	}
	return nil
}

// Stop tears down every connection synchronously.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	conns := s.drainLocked()
	s.running = false
	s.mu.Unlock()

	for _, c := range conns {
		c.teardown()
	}
	s.log.WithComponent("supervisor").Info("feed supervisor stopped")
}

// Symbol returns the currently active symbol.
func (s *Supervisor) Symbol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbol
}

// SetSymbol switches every active venue to a new symbol. Superseded keys are
// fully torn down before their replacements are created, so two live
// connections never race on one key.
func (s *Supervisor) SetSymbol(symbol string) {
	if symbol == "" {
		return
	}

	s.mu.Lock()
	if symbol == s.symbol {
		s.mu.Unlock()
		return
	}
	active := make([]models.Venue, 0, len(s.conns))
	for key := range s.conns {
		active = append(active, key.Venue)
	}
	conns := s.drainLocked()
	s.symbol = symbol
	s.mu.Unlock()

	for _, c := range conns {
		c.teardown()
	}

	s.log.WithComponent("supervisor").WithFields(logger.Fields{"symbol": symbol}).Info("symbol changed")

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	for _, v := range active {
		s.activateLocked(v)
	}
}

// ActivateVenue adds a venue to the active set for the current symbol.
func (s *Supervisor) ActivateVenue(v models.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return fmt.Errorf("supervisor not running")
	}
	if _, ok := s.adapters[v]; !ok {
		return fmt.Errorf("no adapter for venue %q", v)
	}
	if _, ok := s.conns[Key{Venue: v, Symbol: s.symbol}]; ok {
		return nil
	}
	s.activateLocked(v)
	return nil
}

// DeactivateVenue tears down the venue's connection for the current symbol.
func (s *Supervisor) DeactivateVenue(v models.Venue) {
	s.mu.Lock()
	key := Key{Venue: v, Symbol: s.symbol}
	c, ok := s.conns[key]
	if ok {
		delete(s.conns, key)
	}
	s.mu.Unlock()

	if ok {
		c.teardown()
		s.store.Drop(v)
	}
}

// Connection returns the live connection for a venue under the current
// symbol, mainly for tests asserting on state.
func (s *Supervisor) Connection(v models.Venue) *Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[Key{Venue: v, Symbol: s.symbol}]
}

func (s *Supervisor) activateLocked(v models.Venue) {
	adapter, ok := s.adapters[v]
	if !ok {
		s.log.WithComponent("supervisor").WithFields(logger.Fields{"venue": v}).Warn("no adapter for venue, skipping")
		return
	}
	key := Key{Venue: v, Symbol: s.symbol}
	c := newConnection(s.ctx, key, adapter, s.store, s.dialer, s.gen, s.cfg.Feed)
	s.conns[key] = c
	c.spawnRun()
}

func (s *Supervisor) drainLocked() []*Connection {
	out := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}
	s.conns = make(map[Key]*Connection)
	return out
}
