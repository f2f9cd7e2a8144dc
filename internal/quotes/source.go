package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/foliodesk/foliodesk/internal/logger"
	"github.com/foliodesk/foliodesk/internal/position"
)

// ErrQuoteUnavailable means a source had no usable price for the symbol.
// It is informational: callers keep the last known price rather than fail.
var ErrQuoteUnavailable = errors.New("quote unavailable")

type Source interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (position.Quote, error)
}

// Chain tries each source in order and returns the first usable quote.
type Chain struct {
	sources []Source
	logger  *logger.Logger
}

func NewChain(log *logger.Logger, sources ...Source) *Chain {
	return &Chain{sources: sources, logger: log}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Fetch(ctx context.Context, symbol string) (position.Quote, error) {
	var lastErr error
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return position.Quote{}, err
		}

		q, err := src.Fetch(ctx, symbol)
		if err != nil {
			c.logger.Debug("quote source failed", "source", src.Name(), "symbol", symbol, "error", err)
			lastErr = err
			continue
		}
		if !q.HasPrice() {
			lastErr = fmt.Errorf("%w: %s returned no price for %s", ErrQuoteUnavailable, src.Name(), symbol)
			continue
		}
		return q, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no sources configured", ErrQuoteUnavailable)
	}
	return position.Quote{}, lastErr
}
