// Package api expone el journal por HTTP: ledger, estadísticas, rendimiento,
// cuentas y el relay del terminal, más un websocket con el snapshot en vivo.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/tradejournal/internal/journal"
)

const shutdownTimeout = 5 * time.Second

// Config del servidor HTTP.
type Config struct {
	ListenAddr    string
	AllowedOrigin string
	// Límite del endpoint del terminal (peticiones/segundo y ráfaga).
	FetchRate  float64
	FetchBurst int
}

// DefaultConfig escucha en :8080 y solo acepta el frontend local.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    ":8080",
		AllowedOrigin: "http://localhost:8080",
		FetchRate:     1,
		FetchBurst:    3,
	}
}

// Server une el servicio del journal con gin.
type Server struct {
	svc     *journal.Service
	hub     *Hub
	metrics *Metrics
	limiter *rate.Limiter
	cfg     Config
	engine  *gin.Engine
}

// NewServer monta el router. El hub debe ser el mismo publisher con el que se
// construyó el servicio para que las mutaciones lleguen a los websockets.
func NewServer(svc *journal.Service, hub *Hub, cfg Config) *Server {
	def := DefaultConfig()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.FetchRate <= 0 {
		cfg.FetchRate = def.FetchRate
	}
	if cfg.FetchBurst <= 0 {
		cfg.FetchBurst = def.FetchBurst
	}
	if hub == nil {
		hub = NewHub(cfg.AllowedOrigin)
	}

	s := &Server{
		svc:     svc,
		hub:     hub,
		metrics: NewMetrics(),
		limiter: rate.NewLimiter(rate.Limit(cfg.FetchRate), cfg.FetchBurst),
		cfg:     cfg,
	}
	hub.metrics = s.metrics
	s.engine = s.routes()
	return s
}

// Handler devuelve el http.Handler (tests con httptest).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics devuelve las métricas del servidor.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe(), cors(s.cfg.AllowedOrigin))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	r.GET("/ws/stats", s.streamStats)

	v1 := r.Group("/api")
	{
		v1.POST("/mt5/fetch", rateLimit(s.limiter), s.fetchTerminal)

		v1.GET("/trades", s.listTrades)
		v1.POST("/trades", s.createTrade)
		v1.POST("/trades/import", s.importTrades)
		v1.PUT("/trades/:id", s.updateTrade)
		v1.DELETE("/trades/:id", s.deleteTrade)

		v1.GET("/stats", s.getStats)
		v1.GET("/performance", s.getPerformance)

		v1.GET("/accounts", s.listAccounts)
		v1.POST("/accounts", s.createAccount)
		v1.DELETE("/accounts/:id", s.deleteAccount)
	}
	return r
}

// Run sirve hasta que ctx se cancela y luego hace un shutdown ordenado.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api listening", "addr", s.cfg.ListenAddr, "allowed_origin", s.cfg.AllowedOrigin)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api.Run: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api.Run: shutdown: %w", err)
	}
	slog.Info("api stopped")
	return nil
}
