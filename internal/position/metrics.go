package position

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Quote is a point-in-time price observation for a symbol. A zero or
// negative Price means no quote is available; the historical closes are
// optional and only used for the short-horizon change fields.
type Quote struct {
	Price       decimal.Decimal
	Price7dAgo  decimal.Decimal
	Price30dAgo decimal.Decimal
}

func (q Quote) HasPrice() bool { return q.Price.IsPositive() }

// Metrics is the full derived bundle for one position. All values keep
// full decimal precision; rounding happens only at serialization.
type Metrics struct {
	CurrentPrice decimal.Decimal
	Invested     decimal.Decimal
	CurrentValue decimal.Decimal
	PnL          decimal.Decimal
	PnLPercent   decimal.Decimal
	TargetPrice  decimal.Decimal
	TargetValue  decimal.Decimal
	TargetProfit decimal.Decimal
	Change7d     decimal.Decimal
	Change30d    decimal.Decimal
}

// Compute derives the metrics bundle for a position at the quoted price.
// A missing quote is not an error: the position is valued at its entry
// price, so P&L reads zero until a real price arrives.
func Compute(p Position, q Quote) (Metrics, error) {
	if err := p.Validate(); err != nil {
		return Metrics{}, err
	}

	price := q.Price
	if !price.IsPositive() {
		price = p.EntryPrice
	}

	qty := decimal.NewFromInt(p.Quantity)
	invested := qty.Mul(p.EntryPrice)
	currentValue := qty.Mul(price)

	m := Metrics{
		CurrentPrice: price,
		Invested:     invested,
		CurrentValue: currentValue,
	}

	if p.Direction == Long {
		m.PnL = currentValue.Sub(invested)
	} else {
		m.PnL = invested.Sub(currentValue)
	}
	if invested.IsPositive() {
		m.PnLPercent = m.PnL.Div(invested).Mul(hundred)
	}

	// Target price moves toward profit: up for longs, down for shorts.
	step := p.EntryPrice.Mul(p.TargetPercent).Div(hundred)
	if p.Direction == Long {
		m.TargetPrice = p.EntryPrice.Add(step)
	} else {
		m.TargetPrice = p.EntryPrice.Sub(step)
	}
	m.TargetValue = qty.Mul(m.TargetPrice)
	if p.Direction == Long {
		m.TargetProfit = m.TargetValue.Sub(invested)
	} else {
		m.TargetProfit = invested.Sub(m.TargetValue)
	}

	m.Change7d = pctChange(q.Price7dAgo, price)
	m.Change30d = pctChange(q.Price30dAgo, price)

	return m, nil
}

func pctChange(from, to decimal.Decimal) decimal.Decimal {
	if !from.IsPositive() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(hundred)
}

// Round2 rounds a decimal to two places for presentation and storage of
// money and percent fields.
func Round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
