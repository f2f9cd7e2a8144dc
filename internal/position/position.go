package position

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
)

var (
	ErrInvalidPosition        = errors.New("invalid position")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// DefaultTargetPercent is applied when a position is created without an
// explicit profit target.
var DefaultTargetPercent = decimal.NewFromInt(10)

// Position is one tracked trade. Entry economics are fixed at creation;
// only CurrentPrice (and the stale flag) change while the position is ACTIVE.
type Position struct {
	ID            uint
	Symbol        string
	Direction     Direction
	Quantity      int64
	EntryPrice    decimal.Decimal
	CurrentPrice  decimal.Decimal
	TargetPercent decimal.Decimal
	Status        Status
	QuoteStale    bool
	EntryDate     time.Time
	ExitDate      *time.Time
}

func New(symbol string, dir Direction, quantity int64, entryPrice decimal.Decimal, now time.Time) (Position, error) {
	p := Position{
		Symbol:        strings.ToUpper(strings.TrimSpace(symbol)),
		Direction:     dir,
		Quantity:      quantity,
		EntryPrice:    entryPrice,
		CurrentPrice:  entryPrice,
		TargetPercent: DefaultTargetPercent,
		Status:        StatusActive,
		EntryDate:     now,
	}
	if p.Symbol == "" {
		return Position{}, fmt.Errorf("%w: empty symbol", ErrInvalidPosition)
	}
	if err := p.Validate(); err != nil {
		return Position{}, err
	}
	return p, nil
}

func (p Position) Validate() error {
	if p.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidPosition, p.Quantity)
	}
	if !p.EntryPrice.IsPositive() {
		return fmt.Errorf("%w: entry price must be positive, got %s", ErrInvalidPosition, p.EntryPrice)
	}
	if p.Direction != Long && p.Direction != Short {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidPosition, p.Direction)
	}
	return nil
}

// UpdatePrice sets the current market price. Closed positions are frozen
// at their exit price and reject any further updates.
func (p *Position) UpdatePrice(price decimal.Decimal) error {
	if p.Status == StatusClosed {
		return fmt.Errorf("%w: cannot update price of a closed position", ErrInvalidStateTransition)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrInvalidPosition, price)
	}
	p.CurrentPrice = price
	p.QuoteStale = false
	return nil
}

func (p Position) IsOpen() bool { return p.Status == StatusActive }

// CloseResult carries the realized economics of a position exit.
type CloseResult struct {
	ExitPrice       decimal.Decimal
	ExitValue       decimal.Decimal
	RealizedPnL     decimal.Decimal
	RealizedPercent decimal.Decimal
	ExitDate        time.Time
}

// Close transitions an ACTIVE position to CLOSED at the given exit price.
// The transition happens exactly once: closing an already-closed position
// is ErrInvalidStateTransition. The returned copy has CurrentPrice frozen
// at the exit price and ExitDate stamped with now.
func Close(p Position, exitPrice decimal.Decimal, now time.Time) (Position, CloseResult, error) {
	if p.Status == StatusClosed {
		return p, CloseResult{}, fmt.Errorf("%w: position %s already closed", ErrInvalidStateTransition, p.Symbol)
	}
	if err := p.Validate(); err != nil {
		return p, CloseResult{}, err
	}
	if !exitPrice.IsPositive() {
		return p, CloseResult{}, fmt.Errorf("%w: exit price must be positive, got %s", ErrInvalidPosition, exitPrice)
	}

	qty := decimal.NewFromInt(p.Quantity)
	invested := qty.Mul(p.EntryPrice)
	exitValue := qty.Mul(exitPrice)

	var pnl, pct decimal.Decimal
	if p.Direction == Long {
		pnl = exitValue.Sub(invested)
		pct = exitPrice.Sub(p.EntryPrice).Div(p.EntryPrice).Mul(hundred)
	} else {
		pnl = invested.Sub(exitValue)
		pct = p.EntryPrice.Sub(exitPrice).Div(p.EntryPrice).Mul(hundred)
	}

	p.Status = StatusClosed
	p.CurrentPrice = exitPrice
	p.QuoteStale = false
	exitDate := now
	p.ExitDate = &exitDate

	return p, CloseResult{
		ExitPrice:       exitPrice,
		ExitValue:       exitValue,
		RealizedPnL:     pnl,
		RealizedPercent: pct,
		ExitDate:        exitDate,
	}, nil
}
