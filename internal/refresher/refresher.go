package refresher

import (
	"context"
	"fmt"
	"time"

	"github.com/foliodesk/foliodesk/internal/config"
	"github.com/foliodesk/foliodesk/internal/deals"
	"github.com/foliodesk/foliodesk/internal/logger"
)

type Notifier interface {
	NotifyError(context string, err error)
}

// Refresher drives the periodic CMP refresh: a timer loop that calls the
// deal service's Refresh and records a portfolio snapshot after each pass.
// Cancellation is honored both between passes and between symbols inside a
// pass.
type Refresher struct {
	deals    *deals.Service
	notifier Notifier
	config   *config.Config
	logger   *logger.Logger
	loc      *time.Location
}

func New(svc *deals.Service, notifier Notifier, cfg *config.Config, log *logger.Logger) *Refresher {
	return &Refresher{
		deals:    svc,
		notifier: notifier,
		config:   cfg,
		logger:   log,
		loc:      cfg.MarketLocation(),
	}
}

func (r *Refresher) Run(ctx context.Context) {
	interval := r.config.RefreshInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("refresher started", "interval", interval.String())

	// Run immediately on start
	r.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

func (r *Refresher) runCycle(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic in refresh cycle", "panic", fmt.Sprint(rec))
			r.notifier.NotifyError("refresh panic", fmt.Errorf("%v", rec))
		}
	}()

	if r.config.Quotes.MarketHoursOnly && !r.isWithinMarketHours() {
		r.logger.Debug("outside market hours, skipping refresh")
		return
	}

	start := time.Now()
	stats, err := r.deals.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			r.logger.Info("refresh interrupted", "updated", stats.Updated)
			return
		}
		r.logger.Error("refresh cycle", "error", err)
		r.notifier.NotifyError("refresh", err)
		return
	}

	if err := r.deals.SaveSnapshot(); err != nil {
		r.logger.Error("save portfolio snapshot", "error", err)
	}

	r.logger.Info("refresh cycle completed",
		"symbols", stats.Symbols, "updated", stats.Updated,
		"stale", stats.Stale, "skipped", stats.Skipped,
		"took", time.Since(start).String())
}

func (r *Refresher) isWithinMarketHours() bool {
	now := time.Now().In(r.loc)

	// Skip weekends
	weekday := now.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}

	totalMinutes := now.Hour()*60 + now.Minute()

	// NYSE regular session: 09:30 - 16:00 ET
	return totalMinutes >= 570 && totalMinutes <= 960
}
