package api

import (
	"net/http"
	"sort"
	"strconv"

	"papertrader/internal/events"
	"papertrader/pkg/db"

	"github.com/gin-gonic/gin"
)

func (s *Server) getSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"account_id":    s.Meta.AccountID,
		"symbols":       s.Meta.Symbols,
		"use_mock_feed": s.Meta.UseMockFeed,
		"replay_dir":    s.Meta.ReplayDir,
		"version":       s.Meta.Version,
		"kill_switch":   s.Kill.Engaged(),
	})
}

func (s *Server) getAccount(c *gin.Context) {
	c.JSON(http.StatusOK, s.Broker.Summary())
}

func (s *Server) getPositions(c *gin.Context) {
	positions := s.Broker.Positions()
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].OpenedAt.Before(positions[j].OpenedAt)
	})
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (s *Server) getOrders(c *gin.Context) {
	orders := s.Broker.Orders()
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) getTrades(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	trades, err := db.NewQueries(s.DB.DB).ListTrades(c.Request.Context(), s.Meta.AccountID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trades"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (s *Server) getTradeStats(c *gin.Context) {
	stats, err := db.NewQueries(s.DB.DB).GetTradeStats(c.Request.Context(), s.Meta.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trade stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getMarketPrices(c *gin.Context) {
	if s.Quotes == nil {
		c.JSON(http.StatusOK, gin.H{"prices": gin.H{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"prices": s.Quotes.Snapshot()})
}

func (s *Server) getRisk(c *gin.Context) {
	snap := s.RiskMgr.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"equity_start":            snap.EquityStart,
		"equity":                  snap.Equity,
		"realized_pnl":            snap.RealizedPnL,
		"open_trades":             snap.OpenTrades,
		"open_notional_by_symbol": snap.OpenNotionalBySymbol,
		"drawdown_pct":            s.RiskMgr.DrawdownPct(),
		"circuit_breaker":         s.RiskMgr.CircuitBreakerTriggered(),
		"limits":                  s.RiskMgr.Config(),
	})
}

func (s *Server) getStrategies(c *gin.Context) {
	configs := s.Strategies.Configs()
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]gin.H, 0, len(names))
	for _, name := range names {
		cfg := configs[name]
		out = append(out, gin.H{
			"name":            name,
			"enabled":         cfg.Enabled,
			"min_confidence":  cfg.MinConfidence,
			"allowed_regimes": cfg.AllowedRegimes,
		})
	}
	c.JSON(http.StatusOK, gin.H{"strategies": out})
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.Metrics.GetSnapshot())
}

func (s *Server) getMetricsPrometheus(c *gin.Context) {
	c.String(http.StatusOK, s.Metrics.RenderPrometheus())
}

func (s *Server) getKillSwitch(c *gin.Context) {
	c.JSON(http.StatusOK, s.Kill.Status())
}

func (s *Server) engageKillSwitch(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BindJSON(&req)

	if err := s.Kill.Engage(req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to engage kill switch"})
		return
	}
	s.Bus.Publish(events.EventKillSwitch, "kill switch engaged: "+req.Reason)
	c.JSON(http.StatusOK, s.Kill.Status())
}

func (s *Server) resumeKillSwitch(c *gin.Context) {
	if err := s.Kill.Resume(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resume"})
		return
	}
	s.Bus.Publish(events.EventKillSwitch, "kill switch resumed")
	c.JSON(http.StatusOK, s.Kill.Status())
}
