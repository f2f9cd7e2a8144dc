package broker

import "fmt"

func (c *Client) resolveInstrumentUID(uid string) (string, error) {
	if cached, ok := c.instrumentCache.Load(uid); ok {
		return cached.(string), nil
	}

	instruments := c.Client.NewInstrumentsServiceClient()
	resp, err := instruments.InstrumentByUid(uid)
	if err != nil {
		return "", fmt.Errorf("instrument by uid %s: %w", uid, err)
	}

	ticker := resp.GetInstrument().GetTicker()
	c.instrumentCache.Store(uid, ticker)
	return ticker, nil
}

// ResolveSymbol resolves a ticker symbol to its instrument UID.
func (c *Client) ResolveSymbol(symbol string) (string, error) {
	if cached, ok := c.instrumentCache.Load("sym:" + symbol); ok {
		return cached.(string), nil
	}

	instruments := c.Client.NewInstrumentsServiceClient()
	resp, err := instruments.FindInstrument(symbol)
	if err != nil {
		return "", fmt.Errorf("find instrument %s: %w", symbol, err)
	}

	for _, inst := range resp.GetInstruments() {
		if inst.GetTicker() == symbol {
			uid := inst.GetUid()
			c.instrumentCache.Store("sym:"+symbol, uid)
			c.instrumentCache.Store(uid, symbol)
			return uid, nil
		}
	}

	if len(resp.GetInstruments()) > 0 {
		inst := resp.GetInstruments()[0]
		uid := inst.GetUid()
		c.instrumentCache.Store("sym:"+symbol, uid)
		c.instrumentCache.Store(uid, inst.GetTicker())
		return uid, nil
	}

	return "", fmt.Errorf("instrument %s not found", symbol)
}
