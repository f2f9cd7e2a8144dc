package broker

import (
	"fmt"
	"math"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
)

type OrderResult struct {
	OrderID       string
	ExecutedPrice float64
	ExecutedLots  int64
}

func (c *Client) Buy(instrumentID string, lots int64) (*OrderResult, error) {
	return c.marketOrder(instrumentID, lots, pb.OrderDirection_ORDER_DIRECTION_BUY)
}

func (c *Client) Sell(instrumentID string, lots int64) (*OrderResult, error) {
	return c.marketOrder(instrumentID, lots, pb.OrderDirection_ORDER_DIRECTION_SELL)
}

func (c *Client) marketOrder(instrumentID string, lots int64, direction pb.OrderDirection) (*OrderResult, error) {
	orderID := investgo.CreateUid()

	var resp *investgo.PostOrderResponse
	var err error

	if c.Config.IsSandbox() {
		sandbox := c.Client.NewSandboxServiceClient()
		resp, err = sandbox.PostSandboxOrder(&investgo.PostOrderRequest{
			InstrumentId: instrumentID,
			Quantity:     lots,
			Direction:    direction,
			AccountId:    c.AccountID(),
			OrderType:    pb.OrderType_ORDER_TYPE_MARKET,
			OrderId:      orderID,
		})
	} else {
		orders := c.Client.NewOrdersServiceClient()
		req := &investgo.PostOrderRequestShort{
			InstrumentId: instrumentID,
			Quantity:     lots,
			AccountId:    c.AccountID(),
			OrderType:    pb.OrderType_ORDER_TYPE_MARKET,
			OrderId:      orderID,
		}
		if direction == pb.OrderDirection_ORDER_DIRECTION_BUY {
			resp, err = orders.Buy(req)
		} else {
			resp, err = orders.Sell(req)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("market order: %w", err)
	}

	result := &OrderResult{
		OrderID:      resp.GetOrderId(),
		ExecutedLots: resp.GetLotsExecuted(),
	}
	if ep := resp.GetExecutedOrderPrice(); ep != nil {
		result.ExecutedPrice = ep.ToFloat()
	}

	return result, nil
}

// CalculateLots returns how many lots fit in the given cash amount.
func (c *Client) CalculateLots(pricePerLot float64, maxAmount float64) int64 {
	if pricePerLot <= 0 {
		return 0
	}
	lots := int64(math.Floor(maxAmount / pricePerLot))
	if lots < 1 {
		return 0
	}
	return lots
}
