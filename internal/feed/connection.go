package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bookflow/config"
	"bookflow/internal/book"
	"bookflow/internal/synthetic"
	"bookflow/internal/venue"
	"bookflow/logger"
	"bookflow/models"
)

// Key identifies one logical connection: a venue streaming one symbol.
type Key struct {
	Venue  models.Venue
	Symbol string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Venue, k.Symbol)
}

// Connection drives the connect -> subscribe -> stream -> reconnect
// lifecycle for a single key. It owns the transport handle and every timer
// for the key; teardown releases all of them together.
type Connection struct {
	key     Key
	adapter venue.Adapter
	store   *book.Store
	dialer  Dialer
	gen     *synthetic.Generator
	cfg     config.FeedConfig
	log     *logger.Entry

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	conn      Conn
	reconnect *time.Timer
	closed    bool

	wg sync.WaitGroup
}

func newConnection(parent context.Context, key Key, adapter venue.Adapter, store *book.Store, dialer Dialer, gen *synthetic.Generator, cfg config.FeedConfig) *Connection {
	ctx, cancel := context.WithCancel(parent)
	return &Connection{
		key:     key,
		adapter: adapter,
		store:   store,
		dialer:  dialer,
		gen:     gen,
		cfg:     cfg,
		log: logger.GetLogger().WithComponent("feed").WithFields(logger.Fields{
			"venue":  key.Venue,
			"symbol": key.Symbol,
		}),
		ctx:    ctx,
		cancel: cancel,
		state:  StateDisconnected,
	}
}

// State returns the current connection state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// spawnRun starts one lifecycle attempt unless the key is already torn down.
func (c *Connection) spawnRun() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	go c.run()
	return true
}

// teardown cancels every timer, closes the transport if still open and waits
// for all workers, unconditionally and idempotently.
func (c *Connection) teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.cancel()
	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()

	c.setState(StateDisconnected)
	c.store.SetStatus(c.key.Venue, models.StatusDisconnected)
	c.log.Debug("connection torn down")
}

// run performs one connect attempt and, on success, streams until the
// transport drops. Reconnect attempts repeat the full connect-timeout race.
func (c *Connection) run() {
	defer c.wg.Done()

	c.toConnecting()

	dialCtx, cancelDial := context.WithTimeout(c.ctx, c.cfg.ConnectTimeout)
	conn, err := c.dialer.Dial(dialCtx, c.adapter.Endpoint())
	timedOut := dialCtx.Err() == context.DeadlineExceeded
	cancelDial()

	if err != nil {
		if c.ctx.Err() != nil {
			return
		}

		var cerr *ConstructionError
		switch {
		case errors.As(err, &cerr):
			// The transport could not be constructed at all: degrade to a
			// single synthetic snapshot, no retry.
			c.toError(fmt.Sprintf("%s unavailable: %v", c.key.Venue, err))
			c.store.Put(c.key.Venue, c.gen.ForVenueAndSymbol(c.key.Venue, c.key.Symbol))
		case timedOut:
			// The open never arrived in time. Abandon the real transport and
			// feed synthetic data so the venue is never left blank. The
			// status deliberately reads connected.
			c.log.WithFields(logger.Fields{"timeout": c.cfg.ConnectTimeout}).Warn("connect timed out, falling back to synthetic data")
			c.runSynthetic()
		default:
			c.toError(fmt.Sprintf("%s connection failed: %v", c.key.Venue, err))
			c.store.Put(c.key.Venue, c.gen.ForVenueAndSymbol(c.key.Venue, c.key.Symbol))
			c.scheduleReconnect()
		}
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	c.stream(conn)
}

// stream subscribes, arms the heartbeat and reads frames until the transport
// closes. Frame handling for a key is strictly sequential.
func (c *Connection) stream(conn Conn) {
	c.toConnected()

	native := c.adapter.TranslateSymbol(c.key.Symbol)
	sub, err := c.adapter.SubscribeMessage(native)
	if err != nil {
		c.handleTransportError(conn, fmt.Errorf("build subscribe message: %w", err))
		return
	}
	if err := c.adapter.Limiter().Wait(c.ctx); err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		c.handleTransportError(conn, fmt.Errorf("send subscribe: %w", err))
		return
	}
	c.log.WithFields(logger.Fields{"native_symbol": native}).Info("subscribed to orderbook stream")

	hbCtx, stopHeartbeat := context.WithCancel(c.ctx)
	defer stopHeartbeat()
	c.wg.Add(1)
	go c.heartbeat(hbCtx, conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			if c.ctx.Err() != nil {
				return
			}
			if isNormalClose(err) {
				c.log.Info("stream closed normally")
				c.toDisconnected()
				return
			}
			c.handleTransportError(conn, err)
			return
		}

		if book := c.adapter.Parse(raw); book != nil {
			c.store.Put(c.key.Venue, book)
		} else {
			// Pongs, acks and malformed frames are dropped silently.
			c.log.Debug("frame discarded")
		}
	}
}

// heartbeat emits the venue keepalive on the configured cadence. It stops
// firing as soon as the connection is no longer open.
func (c *Connection) heartbeat(ctx context.Context, conn Conn) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			payload, err := c.adapter.HeartbeatMessage()
			if err != nil {
				c.log.WithError(err).Warn("failed to build heartbeat")
				continue
			}
			if err := c.adapter.Limiter().Wait(ctx); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

// runSynthetic holds the key logically connected against a synthetic feed,
// regenerating the book on the refresh cadence until teardown.
func (c *Connection) runSynthetic() {
	c.toConnected()
	c.store.Put(c.key.Venue, c.gen.ForVenueAndSymbol(c.key.Venue, c.key.Symbol))

	ticker := time.NewTicker(c.cfg.SyntheticRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.store.Put(c.key.Venue, c.gen.ForVenueAndSymbol(c.key.Venue, c.key.Symbol))
		}
	}
}

// handleTransportError surfaces the failure and schedules one reconnection.
func (c *Connection) handleTransportError(conn Conn, err error) {
	conn.Close()
	c.toError(fmt.Sprintf("%s connection error: %v", c.key.Venue, err))
	c.scheduleReconnect()
}

// scheduleReconnect arms a single reconnection attempt. There is no backoff
// growth and no retry cap; attempts continue until the key is torn down.
func (c *Connection) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.log.WithFields(logger.Fields{"delay": c.cfg.ReconnectDelay}).Info("scheduling reconnect")
	c.reconnect = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.spawnRun()
	})
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Named transitions. Each one updates the store so consumers observe the
// status without reaching into the state machine.

func (c *Connection) toConnecting() {
	c.setState(StateConnecting)
	c.store.SetStatus(c.key.Venue, models.StatusConnecting)
}

func (c *Connection) toConnected() {
	c.setState(StateConnected)
	c.store.SetStatus(c.key.Venue, models.StatusConnected)
}

func (c *Connection) toDisconnected() {
	c.setState(StateDisconnected)
	c.store.SetStatus(c.key.Venue, models.StatusDisconnected)
}

func (c *Connection) toError(msg string) {
	c.setState(StateError)
	c.store.SetStatus(c.key.Venue, models.StatusError)
	c.store.SetError(msg)
	c.log.Warn(msg)
}
