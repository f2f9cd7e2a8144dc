package position

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	winner := mustPosition(t, "AAA", Long, 10, "100")
	require.NoError(t, winner.UpdatePrice(dec("110"))) // +100

	loser := mustPosition(t, "BBB", Long, 10, "100")
	require.NoError(t, loser.UpdatePrice(dec("95"))) // -50

	shortWin := mustPosition(t, "CCC", Short, 5, "200")
	require.NoError(t, shortWin.UpdatePrice(dec("180"))) // +100

	closed, _, err := Close(mustPosition(t, "DDD", Long, 10, "100"), dec("90"), time.Now())
	require.NoError(t, err) // -100

	s, skipped := Aggregate([]Position{winner, loser, shortWin, closed})
	assert.Empty(t, skipped)

	assert.Equal(t, 4, s.TotalCount)
	assert.Equal(t, 3, s.ActiveCount)
	assert.Equal(t, 1, s.ClosedCount)
	assert.Equal(t, 2, s.WinningCount)
	assert.Equal(t, 2, s.LosingCount)
	assert.True(t, s.TotalInvested.Equal(dec("4000")), "invested %s", s.TotalInvested)
	assert.True(t, s.TotalPnL.Equal(dec("50")), "pnl %s", s.TotalPnL)
	assert.True(t, s.ReturnPercent.Equal(dec("1.25")), "return %s", s.ReturnPercent)
	assert.True(t, s.WinRate.Equal(dec("50")), "win rate %s", s.WinRate)
}

func TestAggregateEmpty(t *testing.T) {
	s, skipped := Aggregate(nil)
	assert.Empty(t, skipped)
	assert.Zero(t, s.TotalCount)
	assert.True(t, s.TotalInvested.IsZero())
	assert.True(t, s.ReturnPercent.IsZero())
	assert.True(t, s.WinRate.IsZero())
}

func TestAggregateSkipsMalformedRecords(t *testing.T) {
	ok := mustPosition(t, "AAA", Long, 10, "100")
	require.NoError(t, ok.UpdatePrice(dec("110")))

	bad := ok
	bad.ID = 42
	bad.Quantity = 0

	s, skipped := Aggregate([]Position{ok, bad})
	assert.Equal(t, []uint{42}, skipped)
	assert.Equal(t, 1, s.TotalCount)
	assert.True(t, s.TotalPnL.Equal(dec("100")), "pnl %s", s.TotalPnL)
}

func TestAggregateOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	positions := make([]Position, 0, 30)
	for i := 0; i < 30; i++ {
		dir := Long
		if rng.Intn(2) == 0 {
			dir = Short
		}
		entry := decimal.NewFromInt(rng.Int63n(40000) + 1).Div(dec("100"))
		p := mustPosition(t, "X", dir, rng.Int63n(100)+1, entry.String())
		require.NoError(t, p.UpdatePrice(decimal.NewFromInt(rng.Int63n(200)+1)))
		positions = append(positions, p)
	}

	base, _ := Aggregate(positions)
	for i := 0; i < 5; i++ {
		shuffled := append([]Position(nil), positions...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		s, _ := Aggregate(shuffled)
		assert.True(t, s.TotalInvested.Equal(base.TotalInvested))
		assert.True(t, s.TotalCurrent.Equal(base.TotalCurrent))
		assert.True(t, s.TotalPnL.Equal(base.TotalPnL))
		assert.True(t, s.ReturnPercent.Equal(base.ReturnPercent))
		assert.Equal(t, base.WinningCount, s.WinningCount)
	}
}
