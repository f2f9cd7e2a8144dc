package broker

import (
	"fmt"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
)

// Holdings is the live account state as the broker reports it. It is
// proxied to the dashboard as-is, next to the locally tracked deals.
type Holdings struct {
	TotalAmount   float64
	AvailableCash float64
	Positions     []Holding
}

type Holding struct {
	Symbol        string
	InstrumentUID string
	Figi          string
	Quantity      float64
	AvgPrice      float64
	CurrentPrice  float64
	ExpectedYield float64
}

func (c *Client) GetHoldings() (*Holdings, error) {
	accountID := c.AccountID()
	currency := pb.PortfolioRequest_RUB

	var resp interface {
		GetTotalAmountPortfolio() *pb.MoneyValue
		GetTotalAmountCurrencies() *pb.MoneyValue
		GetPositions() []*pb.PortfolioPosition
	}

	if c.Config.IsSandbox() {
		sandbox := c.Client.NewSandboxServiceClient()
		r, err := sandbox.GetSandboxPortfolio(accountID, currency)
		if err != nil {
			return nil, fmt.Errorf("get sandbox portfolio: %w", err)
		}
		resp = r.PortfolioResponse
	} else {
		ops := c.Client.NewOperationsServiceClient()
		r, err := ops.GetPortfolio(accountID, currency)
		if err != nil {
			return nil, fmt.Errorf("get portfolio: %w", err)
		}
		resp = r.PortfolioResponse
	}

	holdings := &Holdings{}
	if total := resp.GetTotalAmountPortfolio(); total != nil {
		holdings.TotalAmount = total.ToFloat()
	}
	if currencies := resp.GetTotalAmountCurrencies(); currencies != nil {
		holdings.AvailableCash = currencies.ToFloat()
	}

	for _, pos := range resp.GetPositions() {
		if pos.GetInstrumentType() == "currency" {
			continue
		}
		h := Holding{
			InstrumentUID: pos.GetInstrumentUid(),
			Figi:          pos.GetFigi(),
		}
		if symbol, err := c.resolveInstrumentUID(h.InstrumentUID); err == nil {
			h.Symbol = symbol
		}
		if q := pos.GetQuantity(); q != nil {
			h.Quantity = q.ToFloat()
		}
		if ap := pos.GetAveragePositionPrice(); ap != nil {
			h.AvgPrice = ap.ToFloat()
		}
		if cp := pos.GetCurrentPrice(); cp != nil {
			h.CurrentPrice = cp.ToFloat()
		}
		if ey := pos.GetExpectedYield(); ey != nil {
			h.ExpectedYield = ey.ToFloat()
		}
		holdings.Positions = append(holdings.Positions, h)
	}

	return holdings, nil
}

func (c *Client) GetAvailableCash() (float64, error) {
	holdings, err := c.GetHoldings()
	if err != nil {
		return 0, err
	}
	return holdings.AvailableCash, nil
}
