// Package api exposes the operator dashboard: account state, trade history,
// risk, strategy configs, metrics, and kill-switch control.
package api

import (
	"net/http"
	"time"

	"papertrader/internal/broker"
	"papertrader/internal/events"
	"papertrader/internal/killswitch"
	"papertrader/internal/monitor"
	"papertrader/internal/risk"
	"papertrader/internal/strategy"
	"papertrader/pkg/cache"
	"papertrader/pkg/db"

	"github.com/gin-gonic/gin"
)

// Server wires HTTP endpoints around the trading components.
type Server struct {
	Router     *gin.Engine
	Bus        *events.Bus
	DB         *db.Database
	Broker     *broker.Paper
	RiskMgr    *risk.Manager
	Strategies *strategy.Manager
	Kill       *killswitch.Switch
	Metrics    *monitor.Metrics
	Quotes     *cache.QuoteCache
	Auth       AuthConfig
	Meta       SystemMeta
}

// SystemMeta describes runtime status exposed to the UI.
type SystemMeta struct {
	AccountID   string
	Symbols     []string
	UseMockFeed bool
	ReplayDir   string
	Version     string
}

// Deps bundles the server's collaborators.
type Deps struct {
	Bus        *events.Bus
	DB         *db.Database
	Broker     *broker.Paper
	RiskMgr    *risk.Manager
	Strategies *strategy.Manager
	Kill       *killswitch.Switch
	Metrics    *monitor.Metrics
	Quotes     *cache.QuoteCache
	Auth       AuthConfig
	Meta       SystemMeta
}

func NewServer(deps Deps) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger())
	r.Use(RateLimitMiddleware())
	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(CORSMiddleware())

	s := &Server{
		Router:     r,
		Bus:        deps.Bus,
		DB:         deps.DB,
		Broker:     deps.Broker,
		RiskMgr:    deps.RiskMgr,
		Strategies: deps.Strategies,
		Kill:       deps.Kill,
		Metrics:    deps.Metrics,
		Quotes:     deps.Quotes,
		Auth:       deps.Auth,
		Meta:       deps.Meta,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.GET("/system/status", s.getSystemStatus)
		api.POST("/auth/login", s.login)

		protected := api.Group("")
		protected.Use(AuthMiddleware(s.Auth.JWTSecret))
		{
			protected.GET("/account", s.getAccount)
			protected.GET("/positions", s.getPositions)
			protected.GET("/orders", s.getOrders)
			protected.GET("/trades", s.getTrades)
			protected.GET("/trades/stats", s.getTradeStats)
			protected.GET("/market/prices", s.getMarketPrices)
			protected.GET("/risk", s.getRisk)
			protected.GET("/strategies", s.getStrategies)
			protected.GET("/metrics", s.getMetrics)
			protected.GET("/metrics/prometheus", s.getMetricsPrometheus)

			protected.GET("/killswitch", s.getKillSwitch)
			protected.POST("/killswitch/engage", s.engageKillSwitch)
			protected.POST("/killswitch/resume", s.resumeKillSwitch)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
