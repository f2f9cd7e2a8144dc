package quotes

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/foliodesk/foliodesk/internal/position"
)

// MarketData is the slice of the broker client the quote source needs.
type MarketData interface {
	LastPrice(symbol string) (float64, error)
	HistoricalCloses(symbol string) (price7d, price30d float64, err error)
}

// BrokerSource serves quotes from the broker's market data API. It sits
// behind YahooSource in the chain for symbols Yahoo does not cover.
type BrokerSource struct {
	md MarketData
}

func NewBrokerSource(md MarketData) *BrokerSource {
	return &BrokerSource{md: md}
}

func (b *BrokerSource) Name() string { return "broker" }

func (b *BrokerSource) Fetch(ctx context.Context, symbol string) (position.Quote, error) {
	if err := ctx.Err(); err != nil {
		return position.Quote{}, err
	}

	price, err := b.md.LastPrice(symbol)
	if err != nil {
		return position.Quote{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	if price <= 0 {
		return position.Quote{}, fmt.Errorf("%w: broker returned no price for %s", ErrQuoteUnavailable, symbol)
	}

	q := position.Quote{Price: decimal.NewFromFloat(price)}

	// Historical closes are best effort; the quote is usable without them.
	if p7, p30, err := b.md.HistoricalCloses(symbol); err == nil {
		if p7 > 0 {
			q.Price7dAgo = decimal.NewFromFloat(p7)
		}
		if p30 > 0 {
			q.Price30dAgo = decimal.NewFromFloat(p30)
		}
	}

	return q, nil
}
