package deals

import (
	"github.com/shopspring/decimal"

	"github.com/foliodesk/foliodesk/internal/position"
	"github.com/foliodesk/foliodesk/internal/storage"
)

func toPosition(d *storage.Deal) position.Position {
	return position.Position{
		ID:            d.ID,
		Symbol:        d.Symbol,
		Direction:     position.Direction(d.Direction),
		Quantity:      d.Quantity,
		EntryPrice:    decimal.NewFromFloat(d.EntryPrice),
		CurrentPrice:  decimal.NewFromFloat(d.CurrentPrice),
		TargetPercent: decimal.NewFromFloat(d.TargetPercent),
		Status:        position.Status(d.Status),
		QuoteStale:    d.QuoteStale,
		EntryDate:     d.EntryDate,
		ExitDate:      d.ExitDate,
	}
}

// applyMetrics writes the derived bundle into the deal's cached columns.
// Money and percent fields are rounded here, at the storage boundary; the
// position package itself keeps full precision.
func applyMetrics(d *storage.Deal, m position.Metrics) {
	d.Invested = position.Round2(m.Invested)
	d.CurrentValue = position.Round2(m.CurrentValue)
	d.PnL = position.Round2(m.PnL)
	d.PnLPercent = position.Round2(m.PnLPercent)
	d.TargetPrice = position.Round2(m.TargetPrice)
	d.Change7d = position.Round2(m.Change7d)
	d.Change30d = position.Round2(m.Change30d)
}
