package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "storage_test.db"))
	require.NoError(t, err)
	return NewRepository(db)
}

func TestUsersAndSessions(t *testing.T) {
	repo := newTestRepo(t)

	user := &User{Email: "trader@example.com", PasswordHash: "x", Name: "Trader"}
	require.NoError(t, repo.CreateUser(user))
	require.NotZero(t, user.ID)

	// Duplicate email violates the unique index.
	assert.Error(t, repo.CreateUser(&User{Email: "trader@example.com", PasswordHash: "y"}))

	got, err := repo.GetUserByEmail("trader@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	session := &Session{Token: "tok-1", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateSession(session))

	fetched, err := repo.GetSession("tok-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, fetched.UserID)

	require.NoError(t, repo.DeleteSession("tok-1"))
	_, err = repo.GetSession("tok-1")
	assert.Error(t, err)
}

func TestDeleteExpiredSessions(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateSession(&Session{Token: "old", UserID: 1, ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, repo.CreateSession(&Session{Token: "live", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, repo.DeleteExpiredSessions(time.Now()))

	_, err := repo.GetSession("old")
	assert.Error(t, err)
	_, err = repo.GetSession("live")
	assert.NoError(t, err)
}

func TestDealQueries(t *testing.T) {
	repo := newTestRepo(t)

	now := time.Now()
	deals := []*Deal{
		{UserID: 1, Symbol: "AAPL", Direction: "LONG", Quantity: 10, EntryPrice: 100, Status: "ACTIVE", EntryDate: now},
		{UserID: 1, Symbol: "AAPL", Direction: "LONG", Quantity: 5, EntryPrice: 105, Status: "ACTIVE", EntryDate: now},
		{UserID: 1, Symbol: "MSFT", Direction: "SHORT", Quantity: 3, EntryPrice: 300, Status: "ACTIVE", EntryDate: now},
		{UserID: 2, Symbol: "TSLA", Direction: "LONG", Quantity: 1, EntryPrice: 200, Status: "ACTIVE", EntryDate: now},
	}
	for _, d := range deals {
		require.NoError(t, repo.SaveDeal(d))
	}

	mine, err := repo.ListDeals(1, "")
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	active, err := repo.ListDeals(1, "ACTIVE")
	require.NoError(t, err)
	assert.Len(t, active, 3)

	symbols, err := repo.OpenSymbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, symbols)

	// Close one and check realized P&L sums.
	exit := time.Now()
	deals[0].Status = "CLOSED"
	deals[0].PnL = 150
	deals[0].ExitDate = &exit
	require.NoError(t, repo.SaveDeal(deals[0]))

	total, err := repo.GetTotalRealizedPnL(1)
	require.NoError(t, err)
	assert.Equal(t, 150.0, total)

	today, err := repo.GetTodayRealizedPnL(1)
	require.NoError(t, err)
	assert.Equal(t, 150.0, today)

	open, err := repo.ListOpenDeals()
	require.NoError(t, err)
	assert.Len(t, open, 3)
}

func TestSignalsAndSnapshots(t *testing.T) {
	repo := newTestRepo(t)

	signal := &Signal{Symbol: "INFY", Direction: "LONG", EntryPrice: 1500, TargetPrice: 1650, Status: "ACTIVE"}
	require.NoError(t, repo.SaveSignal(signal))

	active, err := repo.ListSignals("ACTIVE")
	require.NoError(t, err)
	require.Len(t, active, 1)

	now := time.Now()
	signal.Status = "CLOSED"
	signal.ClosedAt = &now
	require.NoError(t, repo.SaveSignal(signal))

	active, err = repo.ListSignals("ACTIVE")
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, repo.SavePortfolioSnapshot(&PortfolioSnapshot{TotalInvested: 1000, TotalCurrent: 1100}))
	require.NoError(t, repo.SavePortfolioSnapshot(&PortfolioSnapshot{TotalInvested: 1000, TotalCurrent: 1200}))

	latest, err := repo.GetLatestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 1200.0, latest.TotalCurrent)
}
