package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foliodesk/foliodesk/internal/advisor"
	"github.com/foliodesk/foliodesk/internal/broker"
	"github.com/foliodesk/foliodesk/internal/config"
	"github.com/foliodesk/foliodesk/internal/deals"
	"github.com/foliodesk/foliodesk/internal/logger"
	"github.com/foliodesk/foliodesk/internal/notify"
	"github.com/foliodesk/foliodesk/internal/quotes"
	"github.com/foliodesk/foliodesk/internal/refresher"
	"github.com/foliodesk/foliodesk/internal/signals"
	"github.com/foliodesk/foliodesk/internal/storage"
	"github.com/foliodesk/foliodesk/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Init logger
	log := logger.New(cfg.Logging.Level)
	log.Info("starting foliodesk", "broker", cfg.Broker.Enabled, "advisor", cfg.Advisor.Enabled)

	// Init database
	db, err := storage.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	// Context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init broker client when enabled
	var brokerClient *broker.Client
	if cfg.Broker.Enabled {
		brokerClient, err = broker.NewClient(ctx, cfg, log)
		if err != nil {
			log.Error("broker client init failed", "error", err)
			os.Exit(1)
		}
		log.Info("broker connected", "account_id", brokerClient.AccountID())
	}

	// Quote sources: Yahoo first, broker market data as fallback
	sources := []quotes.Source{quotes.NewYahooSource(log, cfg.QuoteTimeout())}
	if brokerClient != nil {
		sources = append(sources, quotes.NewBrokerSource(brokerClient))
	}
	chain := quotes.NewChain(log, sources...)

	// Init services
	notifier := notify.NewNotifier(cfg, log)
	advisorClient := advisor.NewClient(cfg, log)

	var dealBroker deals.Broker
	if brokerClient != nil {
		dealBroker = brokerClient
	}
	dealSvc := deals.NewService(repo, chain, dealBroker, notifier, cfg, log)
	signalSvc := signals.NewService(repo, advisorClient, notifier, log)

	refresh := refresher.New(dealSvc, notifier, cfg, log)
	webServer := web.NewServer(repo, dealSvc, signalSvc, brokerClient, chain, cfg, log)

	// Start refresher in goroutine
	go refresh.Run(ctx)

	// Purge expired sessions hourly
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := repo.DeleteExpiredSessions(time.Now()); err != nil {
					log.Error("delete expired sessions", "error", err)
				}
			}
		}
	}()

	// Start web server in goroutine
	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	notifier.NotifyStatus("📊 foliodesk started")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	// Graceful shutdown
	cancel() // stop refresher

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	if brokerClient != nil {
		if err := brokerClient.Stop(); err != nil {
			log.Error("broker client stop error", "error", err)
		}
	}

	notifier.NotifyStatus("🛑 foliodesk stopped")
	log.Info("foliodesk stopped")
}
