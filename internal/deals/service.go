package deals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliodesk/foliodesk/internal/broker"
	"github.com/foliodesk/foliodesk/internal/config"
	"github.com/foliodesk/foliodesk/internal/logger"
	"github.com/foliodesk/foliodesk/internal/position"
	"github.com/foliodesk/foliodesk/internal/quotes"
	"github.com/foliodesk/foliodesk/internal/storage"
)

// Broker is the slice of the broker client the deal service uses. It is nil
// when the broker integration is disabled; deals are then tracked locally only.
type Broker interface {
	ResolveSymbol(symbol string) (string, error)
	Buy(instrumentID string, lots int64) (*broker.OrderResult, error)
	Sell(instrumentID string, lots int64) (*broker.OrderResult, error)
	PlaceTakeProfit(instrumentID string, lots int64, targetPrice float64) (string, error)
	CancelStopOrder(stopOrderID string)
}

type Notifier interface {
	NotifyDealOpened(symbol, direction string, quantity int64, entry, target float64)
	NotifyDealClosed(symbol string, quantity int64, exitPrice, pnl, pnlPct float64)
	NotifyError(context string, err error)
}

type Service struct {
	repo     *storage.Repository
	source   quotes.Source
	broker   Broker
	notifier Notifier
	config   *config.Config
	logger   *logger.Logger
}

func NewService(
	repo *storage.Repository,
	source quotes.Source,
	brk Broker,
	notifier Notifier,
	cfg *config.Config,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		source:   source,
		broker:   brk,
		notifier: notifier,
		config:   cfg,
		logger:   log,
	}
}

type OpenRequest struct {
	UserID        uint
	Symbol        string
	Direction     string
	Quantity      int64
	EntryPrice    float64
	TargetPercent float64
	PlaceOrder    bool
}

// Open records a new deal and optionally places the buy order plus a
// take-profit stop at the computed target price through the broker.
func (s *Service) Open(ctx context.Context, req OpenRequest) (*storage.Deal, error) {
	pos, err := position.New(req.Symbol, position.Direction(req.Direction), req.Quantity,
		decimal.NewFromFloat(req.EntryPrice), time.Now())
	if err != nil {
		return nil, err
	}
	if req.TargetPercent > 0 {
		pos.TargetPercent = decimal.NewFromFloat(req.TargetPercent)
	}

	deal := &storage.Deal{
		UserID:        req.UserID,
		Symbol:        pos.Symbol,
		Direction:     string(pos.Direction),
		Quantity:      pos.Quantity,
		EntryPrice:    req.EntryPrice,
		CurrentPrice:  req.EntryPrice,
		TargetPercent: position.Round2(pos.TargetPercent),
		Status:        string(position.StatusActive),
		EntryDate:     pos.EntryDate,
	}

	if req.PlaceOrder && s.broker != nil && pos.Direction == position.Long {
		if err := s.placeEntryOrder(pos, deal); err != nil {
			s.notifier.NotifyError("OPEN "+pos.Symbol, err)
			return nil, err
		}
	}

	// Entry metrics value the deal at its entry price, so P&L starts at zero.
	m, err := position.Compute(toPosition(deal), position.Quote{})
	if err != nil {
		return nil, err
	}
	applyMetrics(deal, m)

	if err := s.repo.SaveDeal(deal); err != nil {
		return nil, fmt.Errorf("save deal: %w", err)
	}

	s.notifier.NotifyDealOpened(deal.Symbol, deal.Direction, deal.Quantity, deal.EntryPrice, deal.TargetPrice)
	s.logger.Info("deal opened",
		"symbol", deal.Symbol, "direction", deal.Direction,
		"quantity", deal.Quantity, "entry", deal.EntryPrice)

	return deal, nil
}

func (s *Service) placeEntryOrder(pos position.Position, deal *storage.Deal) error {
	uid, err := s.broker.ResolveSymbol(pos.Symbol)
	if err != nil {
		return fmt.Errorf("resolve symbol: %w", err)
	}

	result, err := s.broker.Buy(uid, pos.Quantity)
	if err != nil {
		return fmt.Errorf("buy order: %w", err)
	}
	deal.OrderID = result.OrderID
	if result.ExecutedPrice > 0 {
		// The fill price is the real entry; recompute the target from it.
		deal.EntryPrice = result.ExecutedPrice
		deal.CurrentPrice = result.ExecutedPrice
		pos.EntryPrice = decimal.NewFromFloat(result.ExecutedPrice)
	}

	m, err := position.Compute(pos, position.Quote{})
	if err != nil {
		return err
	}
	tpOrderID, err := s.broker.PlaceTakeProfit(uid, pos.Quantity, position.Round2(m.TargetPrice))
	if err != nil {
		s.logger.Error("place take profit", "symbol", pos.Symbol, "error", err)
	} else {
		deal.TakeProfitOrderID = tpOrderID
	}
	return nil
}

// Close exits a deal at the given price. Closing an already closed deal is
// position.ErrInvalidStateTransition. When the broker is wired and the deal
// was opened through it, the sell order's fill price wins over exitPrice.
func (s *Service) Close(ctx context.Context, id uint, exitPrice float64, placeOrder bool) (*storage.Deal, error) {
	deal, err := s.repo.GetDeal(id)
	if err != nil {
		return nil, fmt.Errorf("load deal %d: %w", id, err)
	}
	if deal.Status == string(position.StatusClosed) {
		return nil, fmt.Errorf("%w: deal %d already closed", position.ErrInvalidStateTransition, id)
	}

	if placeOrder && s.broker != nil && deal.OrderID != "" {
		uid, err := s.broker.ResolveSymbol(deal.Symbol)
		if err != nil {
			return nil, fmt.Errorf("resolve symbol: %w", err)
		}
		result, err := s.broker.Sell(uid, deal.Quantity)
		if err != nil {
			s.notifier.NotifyError("CLOSE "+deal.Symbol, err)
			return nil, fmt.Errorf("sell order: %w", err)
		}
		s.broker.CancelStopOrder(deal.TakeProfitOrderID)
		if result.ExecutedPrice > 0 {
			exitPrice = result.ExecutedPrice
		}
	}

	closed, res, err := position.Close(toPosition(deal), decimal.NewFromFloat(exitPrice), time.Now())
	if err != nil {
		return nil, err
	}

	deal.Status = string(closed.Status)
	deal.ExitPrice = exitPrice
	deal.ExitDate = closed.ExitDate
	deal.CurrentPrice = exitPrice
	deal.CurrentValue = position.Round2(res.ExitValue)
	deal.PnL = position.Round2(res.RealizedPnL)
	deal.PnLPercent = position.Round2(res.RealizedPercent)
	deal.QuoteStale = false

	if err := s.repo.SaveDeal(deal); err != nil {
		return nil, fmt.Errorf("save deal: %w", err)
	}

	s.notifier.NotifyDealClosed(deal.Symbol, deal.Quantity, deal.ExitPrice, deal.PnL, deal.PnLPercent)
	s.logger.Info("deal closed",
		"symbol", deal.Symbol, "exit", deal.ExitPrice, "pnl", deal.PnL)

	return deal, nil
}

// Summary aggregates all of a user's deals. Malformed rows are skipped and
// their IDs reported, never failing the whole batch.
func (s *Service) Summary(userID uint) (position.Summary, []uint, error) {
	dealRows, err := s.repo.ListDeals(userID, "")
	if err != nil {
		return position.Summary{}, nil, fmt.Errorf("list deals: %w", err)
	}

	positions := make([]position.Position, 0, len(dealRows))
	for i := range dealRows {
		positions = append(positions, toPosition(&dealRows[i]))
	}

	summary, skipped := position.Aggregate(positions)
	if len(skipped) > 0 {
		s.logger.Warn("summary skipped malformed deals", "ids", skipped)
	}
	return summary, skipped, nil
}

func (s *Service) Get(id uint) (*storage.Deal, error) {
	return s.repo.GetDeal(id)
}

func (s *Service) List(userID uint, status string) ([]storage.Deal, error) {
	return s.repo.ListDeals(userID, status)
}

var errStopRefresh = errors.New("refresh interrupted")

type RefreshStats struct {
	Symbols int
	Updated int
	Stale   int
	Skipped int
}

// Refresh fetches a quote per open symbol and writes the recomputed metric
// columns back. A failed quote keeps the last known price and flags the
// deal stale; the pass is interruptible between symbols.
func (s *Service) Refresh(ctx context.Context) (RefreshStats, error) {
	var stats RefreshStats

	open, err := s.repo.ListOpenDeals()
	if err != nil {
		return stats, fmt.Errorf("list open deals: %w", err)
	}

	bySymbol := make(map[string][]*storage.Deal)
	for i := range open {
		d := &open[i]
		bySymbol[d.Symbol] = append(bySymbol[d.Symbol], d)
	}
	stats.Symbols = len(bySymbol)

	for symbol, symbolDeals := range bySymbol {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("%w: %v", errStopRefresh, err)
		}

		quote, err := s.source.Fetch(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return stats, fmt.Errorf("%w: %v", errStopRefresh, ctx.Err())
			}
			s.logger.Warn("quote fetch failed, keeping last price", "symbol", symbol, "error", err)
			s.markStale(symbolDeals)
			stats.Stale += len(symbolDeals)
			continue
		}

		for _, deal := range symbolDeals {
			if err := s.refreshDeal(deal, quote); err != nil {
				s.logger.Warn("skipping malformed deal", "id", deal.ID, "error", err)
				stats.Skipped++
				continue
			}
			stats.Updated++
		}
	}

	return stats, nil
}

func (s *Service) refreshDeal(deal *storage.Deal, quote position.Quote) error {
	pos := toPosition(deal)
	m, err := position.Compute(pos, quote)
	if err != nil {
		return err
	}

	now := time.Now()
	deal.CurrentPrice, _ = m.CurrentPrice.Float64()
	applyMetrics(deal, m)
	deal.QuoteStale = false
	deal.QuoteCheckedAt = &now

	if err := s.repo.SaveDeal(deal); err != nil {
		return fmt.Errorf("save deal %d: %w", deal.ID, err)
	}
	return nil
}

func (s *Service) markStale(symbolDeals []*storage.Deal) {
	now := time.Now()
	for _, deal := range symbolDeals {
		deal.QuoteStale = true
		deal.QuoteCheckedAt = &now
		if err := s.repo.SaveDeal(deal); err != nil {
			s.logger.Error("mark deal stale", "id", deal.ID, "error", err)
		}
	}
}

// SaveSnapshot records portfolio-wide totals across all open deals.
func (s *Service) SaveSnapshot() error {
	open, err := s.repo.ListOpenDeals()
	if err != nil {
		return fmt.Errorf("list open deals: %w", err)
	}

	positions := make([]position.Position, 0, len(open))
	for i := range open {
		positions = append(positions, toPosition(&open[i]))
	}
	summary, _ := position.Aggregate(positions)

	summaryJSON, _ := json.Marshal(summary)
	snapshot := &storage.PortfolioSnapshot{
		TotalInvested: position.Round2(summary.TotalInvested),
		TotalCurrent:  position.Round2(summary.TotalCurrent),
		TotalPnL:      position.Round2(summary.TotalPnL),
		ReturnPercent: position.Round2(summary.ReturnPercent),
		ActiveCount:   summary.ActiveCount,
		SummaryJSON:   string(summaryJSON),
	}
	return s.repo.SavePortfolioSnapshot(snapshot)
}
