package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliodesk/foliodesk/internal/logger"
	"github.com/foliodesk/foliodesk/internal/position"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s?range=1mo&interval=1d"

type YahooSource struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewYahooSource(log *logger.Logger, timeout time.Duration) *YahooSource {
	return &YahooSource{
		baseURL:    yahooChartURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

func (y *YahooSource) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *YahooSource) Fetch(ctx context.Context, symbol string) (position.Quote, error) {
	url := fmt.Sprintf(y.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return position.Quote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "foliodesk/1.0")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return position.Quote{}, fmt.Errorf("fetch yahoo chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return position.Quote{}, fmt.Errorf("%w: yahoo has no data for %s", ErrQuoteUnavailable, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return position.Quote{}, fmt.Errorf("yahoo returned status %d for %s", resp.StatusCode, symbol)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return position.Quote{}, fmt.Errorf("read response: %w", err)
	}

	var chart yahooChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return position.Quote{}, fmt.Errorf("parse yahoo response: %w", err)
	}
	if chart.Chart.Error != nil {
		return position.Quote{}, fmt.Errorf("%w: yahoo error %s for %s", ErrQuoteUnavailable, chart.Chart.Error.Code, symbol)
	}
	if len(chart.Chart.Result) == 0 {
		return position.Quote{}, fmt.Errorf("%w: empty yahoo result for %s", ErrQuoteUnavailable, symbol)
	}

	result := chart.Chart.Result[0]

	var closes []float64
	var stamps []time.Time
	if len(result.Indicators.Quote) > 0 {
		for i, c := range result.Indicators.Quote[0].Close {
			if c == nil || *c <= 0 || i >= len(result.Timestamp) {
				continue
			}
			closes = append(closes, *c)
			stamps = append(stamps, time.Unix(result.Timestamp[i], 0))
		}
	}

	price := result.Meta.RegularMarketPrice
	if price <= 0 && len(closes) > 0 {
		price = closes[len(closes)-1]
	}
	if price <= 0 {
		return position.Quote{}, fmt.Errorf("%w: no price in yahoo data for %s", ErrQuoteUnavailable, symbol)
	}

	q := position.Quote{Price: decimal.NewFromFloat(price)}
	now := time.Now()
	if p := closeNearest(closes, stamps, now.AddDate(0, 0, -7)); p > 0 {
		q.Price7dAgo = decimal.NewFromFloat(p)
	}
	if p := closeNearest(closes, stamps, now.AddDate(0, 0, -30)); p > 0 {
		q.Price30dAgo = decimal.NewFromFloat(p)
	}

	return q, nil
}

// closeNearest picks the close whose timestamp is nearest the target day.
func closeNearest(closes []float64, stamps []time.Time, target time.Time) float64 {
	best := -1
	var bestDiff time.Duration
	for i, ts := range stamps {
		diff := ts.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if best < 0 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	if best < 0 {
		return 0
	}
	return closes[best]
}
