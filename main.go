package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"papertrader/internal/api"
	"papertrader/internal/broker"
	"papertrader/internal/engine"
	"papertrader/internal/events"
	"papertrader/internal/killswitch"
	"papertrader/internal/market"
	"papertrader/internal/monitor"
	"papertrader/internal/persistence"
	"papertrader/internal/risk"
	"papertrader/internal/strategy"
	"papertrader/internal/tradelog"
	"papertrader/pkg/cache"
	"papertrader/pkg/config"
	"papertrader/pkg/db"
)

var buildVersion = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("starting paper trader (account=%s, port=%s)", cfg.AccountID, cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core services
	bus := events.NewBus()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("db migrations failed: %v", err)
	}

	kill := killswitch.New(cfg.KillSwitchPath)
	if kill.Engaged() {
		log.Println("[ENGINE] kill switch engaged at startup; no trades until resumed")
	}

	// Strategy configs: file overlay on defaults, then env overrides.
	stratConfigs := strategy.DefaultConfigs()
	if cfg.StrategyConfigPath != "" {
		stratConfigs, err = strategy.LoadConfigFile(cfg.StrategyConfigPath)
		if err != nil {
			log.Fatalf("strategy config load failed: %v", err)
		}
	}
	strategies, err := strategy.NewManager(stratConfigs, strategy.Overrides{
		Enabled:  cfg.EnabledStrategies,
		Disabled: cfg.DisabledStrategies,
	})
	if err != nil {
		log.Fatalf("strategy setup failed: %v", err)
	}
	if err := strategy.SyncConfigToDB(database.DB, strategies.Configs()); err != nil {
		log.Printf("strategy config sync failed: %v", err)
	}

	// Trade sinks: JSONL files for inspection plus batched DB rows for the API.
	batchWriter := persistence.NewBatchWriter(database.DB, 50, 500*time.Millisecond)
	sink := tradelog.Multi{
		tradelog.NewJSONL(cfg.TradeLogDir),
		batchWriter,
	}

	brk := broker.NewPaper(cfg.AccountID, cfg.InitialBalance, broker.Config{
		CommissionPct: cfg.CommissionPct,
		SlippagePct:   cfg.SlippagePct,
	}, sink)

	riskMgr := risk.NewManager(risk.Config{
		InitialEquity:      cfg.InitialBalance,
		MaxOpenTrades:      cfg.MaxOpenTrades,
		MaxExposurePct:     cfg.MaxExposurePct,
		PerSymbolMaxTrades: cfg.PerSymbolMaxTrades,
		MaxTradeRiskPct:    cfg.MaxTradeRiskPct,
		MaxDailyLossPct:    cfg.MaxDailyLossPct,
	})
	riskMgr.RefreshFromBroker(brk)

	metrics := monitor.NewMetrics()

	engCfg := engine.DefaultConfig()
	if cfg.QuantWindow > 0 {
		engCfg.QuantWindow = cfg.QuantWindow
	}
	eng := engine.New(engCfg, bus, strategies, riskMgr, brk, kill, metrics)
	go eng.Run(ctx)

	mon := &monitor.Monitor{Bus: bus, Sink: monitor.LogSink{}}
	go mon.Start(ctx)

	quotes := cache.NewQuoteCache()
	tracker := &market.QuoteTracker{Bus: bus, Cache: quotes}
	go tracker.Start(ctx)

	// Market data: recorded replay when a day directory is given, otherwise
	// the synthetic mock feed.
	switch {
	case cfg.ReplayDir != "":
		feed := &market.ReplayFeed{Bus: bus, Dir: cfg.ReplayDir, Speed: cfg.ReplaySpeed}
		go func() {
			if err := feed.Start(ctx); err != nil {
				log.Printf("replay feed stopped: %v", err)
				return
			}
			log.Printf("replay of %s complete", cfg.ReplayDir)
		}()
	case cfg.UseMockFeed:
		interval, err := time.ParseDuration(cfg.MockInterval)
		if err != nil || interval <= 0 {
			interval = time.Second
		}
		feed := &market.MockFeed{
			Bus:        bus,
			Symbols:    cfg.Symbols,
			StartPrice: 100,
			Step:       0.5,
			Interval:   interval,
		}
		go feed.Start(ctx)
	default:
		log.Println("no market feed configured; engine will idle")
	}

	// API
	server := api.NewServer(api.Deps{
		Bus:        bus,
		DB:         database,
		Broker:     brk,
		RiskMgr:    riskMgr,
		Strategies: strategies,
		Kill:       kill,
		Metrics:    metrics,
		Quotes:     quotes,
		Auth: api.AuthConfig{
			JWTSecret:    cfg.JWTSecret,
			User:         cfg.OperatorUser,
			PasswordHash: cfg.OperatorPasswordHash,
		},
		Meta: api.SystemMeta{
			AccountID:   cfg.AccountID,
			Symbols:     cfg.Symbols,
			UseMockFeed: cfg.UseMockFeed,
			ReplayDir:   cfg.ReplayDir,
			Version:     buildVersion,
		},
	})
	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Fatalf("api server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("shutting down")

	cancel()
	<-eng.Done()
	eng.ForceCloseAll(eng.LastPrices())
	batchWriter.Close()

	summary := brk.Summary()
	log.Printf("final equity %.2f, realized pnl %.2f", summary.Equity, summary.RealizedPnL)
}
