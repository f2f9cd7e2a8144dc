package signals

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliodesk/foliodesk/internal/logger"
	"github.com/foliodesk/foliodesk/internal/position"
	"github.com/foliodesk/foliodesk/internal/storage"
)

// Advisor produces optional commentary for a new signal.
type Advisor interface {
	Enabled() bool
	Commentary(ctx context.Context, symbol, direction string, entry, target, stop float64) (string, error)
}

type Notifier interface {
	NotifySignal(symbol, direction string, entry, target float64)
}

type Service struct {
	repo     *storage.Repository
	advisor  Advisor
	notifier Notifier
	logger   *logger.Logger
}

func NewService(repo *storage.Repository, adv Advisor, notifier Notifier, log *logger.Logger) *Service {
	return &Service{repo: repo, advisor: adv, notifier: notifier, logger: log}
}

type CreateRequest struct {
	Symbol      string
	Direction   string
	EntryPrice  float64
	TargetPrice float64
	StopLoss    float64
	Notes       string
}

// Create validates and stores a new trade signal. When no target price is
// given it defaults to the standard target percent off the entry.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*storage.Signal, error) {
	// A signal prices exactly one unit; reuse the position validation.
	pos, err := position.New(req.Symbol, position.Direction(req.Direction), 1,
		decimal.NewFromFloat(req.EntryPrice), time.Now())
	if err != nil {
		return nil, err
	}

	target := req.TargetPrice
	if target <= 0 {
		m, err := position.Compute(pos, position.Quote{})
		if err != nil {
			return nil, err
		}
		target = position.Round2(m.TargetPrice)
	}

	signal := &storage.Signal{
		Symbol:      pos.Symbol,
		Direction:   string(pos.Direction),
		EntryPrice:  req.EntryPrice,
		TargetPrice: target,
		StopLoss:    req.StopLoss,
		Status:      string(position.StatusActive),
		Notes:       req.Notes,
	}

	if s.advisor != nil && s.advisor.Enabled() {
		commentary, err := s.advisor.Commentary(ctx, signal.Symbol, signal.Direction,
			signal.EntryPrice, signal.TargetPrice, signal.StopLoss)
		if err != nil {
			// Commentary is decoration; the signal is saved without it.
			s.logger.Warn("advisor commentary failed", "symbol", signal.Symbol, "error", err)
		} else {
			signal.Commentary = commentary
		}
	}

	if err := s.repo.SaveSignal(signal); err != nil {
		return nil, fmt.Errorf("save signal: %w", err)
	}

	s.notifier.NotifySignal(signal.Symbol, signal.Direction, signal.EntryPrice, signal.TargetPrice)
	s.logger.Info("signal created", "symbol", signal.Symbol, "direction", signal.Direction)

	return signal, nil
}

func (s *Service) List(status string) ([]storage.Signal, error) {
	return s.repo.ListSignals(status)
}

// Close marks a signal as played out at the given price. Like deals, a
// signal closes exactly once.
func (s *Service) Close(id uint, closePrice float64) (*storage.Signal, error) {
	signal, err := s.repo.GetSignal(id)
	if err != nil {
		return nil, fmt.Errorf("load signal %d: %w", id, err)
	}
	if signal.Status == string(position.StatusClosed) {
		return nil, fmt.Errorf("%w: signal %d already closed", position.ErrInvalidStateTransition, id)
	}
	if closePrice <= 0 {
		return nil, fmt.Errorf("%w: close price must be positive", position.ErrInvalidPosition)
	}

	now := time.Now()
	signal.Status = string(position.StatusClosed)
	signal.ClosePrice = closePrice
	signal.ClosedAt = &now

	if err := s.repo.SaveSignal(signal); err != nil {
		return nil, fmt.Errorf("save signal: %w", err)
	}
	return signal, nil
}
