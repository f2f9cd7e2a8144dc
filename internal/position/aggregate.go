package position

import "github.com/shopspring/decimal"

// Summary is a derived view over a set of positions. It is recomputed on
// demand and never persisted.
type Summary struct {
	TotalCount    int
	ActiveCount   int
	ClosedCount   int
	WinningCount  int
	LosingCount   int
	TotalInvested decimal.Decimal
	TotalCurrent  decimal.Decimal
	TotalPnL      decimal.Decimal
	ReturnPercent decimal.Decimal
	WinRate       decimal.Decimal
}

// Aggregate folds positions into a Summary. Malformed positions are
// skipped and reported by ID; one bad record never aborts the batch.
// The fold is pure addition, so input order does not matter.
func Aggregate(positions []Position) (Summary, []uint) {
	var s Summary
	var skipped []uint

	for _, p := range positions {
		m, err := Compute(p, Quote{Price: p.CurrentPrice})
		if err != nil {
			skipped = append(skipped, p.ID)
			continue
		}

		s.TotalCount++
		if p.Status == StatusClosed {
			s.ClosedCount++
		} else {
			s.ActiveCount++
		}
		if m.PnL.IsPositive() {
			s.WinningCount++
		} else if m.PnL.IsNegative() {
			s.LosingCount++
		}

		s.TotalInvested = s.TotalInvested.Add(m.Invested)
		s.TotalCurrent = s.TotalCurrent.Add(m.CurrentValue)
		s.TotalPnL = s.TotalPnL.Add(m.PnL)
	}

	if s.TotalInvested.IsPositive() {
		s.ReturnPercent = s.TotalPnL.Div(s.TotalInvested).Mul(hundred)
	}
	if s.TotalCount > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.WinningCount)).
			Div(decimal.NewFromInt(int64(s.TotalCount))).Mul(hundred)
	}

	return s, skipped
}
