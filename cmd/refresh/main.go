package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/foliodesk/foliodesk/internal/broker"
	"github.com/foliodesk/foliodesk/internal/config"
	"github.com/foliodesk/foliodesk/internal/deals"
	"github.com/foliodesk/foliodesk/internal/logger"
	"github.com/foliodesk/foliodesk/internal/quotes"
	"github.com/foliodesk/foliodesk/internal/storage"
)

// One-shot CMP refresh over all open deals. Useful for cron setups and for
// inspecting quote coverage without running the server.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "fetch quotes and print metrics without writing back")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	db, err := storage.NewDatabase(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database error: %v\n", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sources := []quotes.Source{quotes.NewYahooSource(log, cfg.QuoteTimeout())}
	if cfg.Broker.Enabled {
		bc, err := broker.NewClient(ctx, cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "broker init error: %v\n", err)
			os.Exit(1)
		}
		defer bc.Stop()
		sources = append(sources, quotes.NewBrokerSource(bc))
	}
	chain := quotes.NewChain(log, sources...)

	open, err := repo.ListOpenDeals()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list open deals error: %v\n", err)
		os.Exit(1)
	}
	if len(open) == 0 {
		fmt.Println("No open deals.")
		return
	}

	if *dryRun {
		symbols, err := repo.OpenSymbols()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list open symbols error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Found %d open deal(s) across %d symbol(s):\n\n", len(open), len(symbols))
		for _, symbol := range symbols {
			quote, err := chain.Fetch(ctx, symbol)
			if err != nil {
				fmt.Printf("  %s: quote unavailable (%v)\n", symbol, err)
				continue
			}
			price, _ := quote.Price.Float64()
			fmt.Printf("  %s: cmp %.2f\n", symbol, price)
		}
		fmt.Println("\nDry run, nothing written.")
		return
	}

	svc := deals.NewService(repo, chain, nil, noopNotifier{}, cfg, log)
	stats, err := svc.Refresh(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "refresh error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Refreshed %d symbol(s): %d updated, %d stale, %d skipped.\n",
		stats.Symbols, stats.Updated, stats.Stale, stats.Skipped)

	if err := svc.SaveSnapshot(); err != nil {
		fmt.Fprintf(os.Stderr, "snapshot error: %v\n", err)
	}
}

type noopNotifier struct{}

func (noopNotifier) NotifyDealOpened(string, string, int64, float64, float64)  {}
func (noopNotifier) NotifyDealClosed(string, int64, float64, float64, float64) {}
func (noopNotifier) NotifyError(string, error)                                 {}
