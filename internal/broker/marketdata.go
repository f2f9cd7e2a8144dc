package broker

import (
	"fmt"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
)

// LastPrice returns the latest traded price for a symbol.
func (c *Client) LastPrice(symbol string) (float64, error) {
	uid, err := c.ResolveSymbol(symbol)
	if err != nil {
		return 0, err
	}

	md := c.Client.NewMarketDataServiceClient()
	resp, err := md.GetLastPrices([]string{uid})
	if err != nil {
		return 0, fmt.Errorf("get last price %s: %w", symbol, err)
	}

	for _, lp := range resp.GetLastPrices() {
		if p := lp.GetPrice(); p != nil {
			return p.ToFloat(), nil
		}
	}
	return 0, fmt.Errorf("no last price for %s", symbol)
}

// HistoricalCloses returns the daily closes nearest 7 and 30 calendar days
// back, for the short-horizon change columns. Either value may be zero when
// the history is too short.
func (c *Client) HistoricalCloses(symbol string) (price7d, price30d float64, err error) {
	uid, err := c.ResolveSymbol(symbol)
	if err != nil {
		return 0, 0, err
	}

	now := time.Now()
	from := now.AddDate(0, 0, -31)

	md := c.Client.NewMarketDataServiceClient()
	resp, err := md.GetCandles(
		uid,
		pb.CandleInterval_CANDLE_INTERVAL_DAY,
		from, now,
		pb.GetCandlesRequest_CANDLE_SOURCE_EXCHANGE,
		0,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("get candles %s: %w", symbol, err)
	}

	candles := resp.GetCandles()
	if len(candles) == 0 {
		return 0, 0, nil
	}

	price7d = findCloseAtOffset(candles, now, 7*24*time.Hour)
	price30d = findCloseAtOffset(candles, now, 30*24*time.Hour)
	return price7d, price30d, nil
}

// findCloseAtOffset finds the close price of the candle closest to (now - offset).
func findCloseAtOffset(candles []*pb.HistoricCandle, now time.Time, offset time.Duration) float64 {
	target := now.Add(-offset)
	var bestCandle *pb.HistoricCandle
	var bestDiff time.Duration

	for _, c := range candles {
		t := c.GetTime().AsTime()
		diff := absDuration(t.Sub(target))
		if bestCandle == nil || diff < bestDiff {
			bestCandle = c
			bestDiff = diff
		}
	}

	if bestCandle == nil {
		return 0
	}
	return bestCandle.GetClose().ToFloat()
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
