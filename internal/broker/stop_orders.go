package broker

import (
	"fmt"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
)

// PlaceTakeProfit parks a sell stop order at the deal's target price so the
// broker exits the position even when the dashboard is offline.
func (c *Client) PlaceTakeProfit(instrumentID string, lots int64, targetPrice float64) (string, error) {
	if c.Config.IsSandbox() {
		// Stop orders are not supported in sandbox
		c.Logger.Info("take-profit skipped in sandbox mode", "instrument", instrumentID, "price", targetPrice)
		return "", nil
	}

	stopOrders := c.Client.NewStopOrdersServiceClient()
	resp, err := stopOrders.PostStopOrder(&investgo.PostStopOrderRequest{
		InstrumentId:   instrumentID,
		Quantity:       lots,
		StopPrice:      floatToQuotation(targetPrice),
		Direction:      pb.StopOrderDirection_STOP_ORDER_DIRECTION_SELL,
		AccountId:      c.AccountID(),
		ExpirationType: pb.StopOrderExpirationType_STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_CANCEL,
		StopOrderType:  pb.StopOrderType_STOP_ORDER_TYPE_TAKE_PROFIT,
		OrderID:        investgo.CreateUid(),
	})
	if err != nil {
		return "", fmt.Errorf("place take profit: %w", err)
	}

	return resp.GetStopOrderId(), nil
}

func (c *Client) CancelStopOrder(stopOrderID string) {
	if c.Config.IsSandbox() || stopOrderID == "" {
		return
	}

	stopOrders := c.Client.NewStopOrdersServiceClient()
	if _, err := stopOrders.CancelStopOrder(c.AccountID(), stopOrderID); err != nil {
		c.Logger.Error("cancel stop order", "order_id", stopOrderID, "error", err)
	}
}

func floatToQuotation(value float64) *pb.Quotation {
	units := int64(value)
	nano := int32((value - float64(units)) * 1e9)
	return &pb.Quotation{Units: units, Nano: nano}
}
