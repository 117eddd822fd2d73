package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bookflow/config"
	"bookflow/internal/book"
	"bookflow/internal/feed"
	"bookflow/internal/sim"
	"bookflow/logger"
	"bookflow/models"
)

// Server hosts the Gin-powered JSON surface consumed by the presentation
// layer: latest orderbooks, per-venue connection status, the last failure
// message and the order-simulation endpoint.
type Server struct {
	cfg        config.DashboardConfig
	log        *logger.Log
	store      *book.Store
	supervisor *feed.Supervisor
	simulator  *sim.Simulator
	httpServer *http.Server
}

// NewServer constructs the API server when the dashboard feature is enabled.
// When disabled the returned server is nil.
func NewServer(cfg config.DashboardConfig, store *book.Store, supervisor *feed.Supervisor, simulator *sim.Simulator) *Server {
	if !cfg.Enabled {
		return nil
	}

	cfg.Address = normalizeAddress(cfg.Address)

	return &Server{
		cfg:        cfg,
		log:        logger.GetLogger(),
		store:      store,
		supervisor: supervisor,
		simulator:  simulator,
	}
}

// Run starts the HTTP server and blocks until the provided context is
// cancelled or the underlying server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}

	router := s.buildRouter()

	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: router,
	}

	s.log.WithComponent("dashboard").WithFields(logger.Fields{"address": s.cfg.Address}).Info("dashboard listening")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// Address reports the network address the server listens on.
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.cfg.Address
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/orderbooks", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"symbol":     s.supervisor.Symbol(),
			"orderbooks": s.store.Books(),
		})
	})

	router.GET("/api/status", func(c *gin.Context) {
		var errField interface{}
		if msg := s.store.LastError(); msg != "" {
			errField = msg
		}
		c.JSON(http.StatusOK, gin.H{
			"connection_status": s.store.Statuses(),
			"error":             errField,
		})
	})

	router.GET("/api/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"order":   s.simulator.LastOrder(),
			"metrics": s.simulator.LastMetrics(),
		})
	})

	router.POST("/api/simulate", func(c *gin.Context) {
		var req models.OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		order, metrics, err := s.simulator.Simulate(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order, "metrics": metrics})
	})

	router.POST("/api/symbol", func(c *gin.Context) {
		var req struct {
			Symbol string `json:"symbol"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Symbol == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
			return
		}
		s.supervisor.SetSymbol(req.Symbol)
		c.JSON(http.StatusOK, gin.H{"symbol": s.supervisor.Symbol()})
	})

	return router
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:8085"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		return "0.0.0.0" + addr
	}

	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}

	return net.JoinHostPort(addr, "8085")
}
