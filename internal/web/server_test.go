package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliodesk/foliodesk/internal/advisor"
	"github.com/foliodesk/foliodesk/internal/config"
	"github.com/foliodesk/foliodesk/internal/deals"
	"github.com/foliodesk/foliodesk/internal/logger"
	"github.com/foliodesk/foliodesk/internal/notify"
	"github.com/foliodesk/foliodesk/internal/position"
	"github.com/foliodesk/foliodesk/internal/quotes"
	"github.com/foliodesk/foliodesk/internal/signals"
	"github.com/foliodesk/foliodesk/internal/storage"
)

type staticSource struct {
	prices map[string]float64
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) Fetch(ctx context.Context, symbol string) (position.Quote, error) {
	price, ok := s.prices[symbol]
	if !ok {
		return position.Quote{}, fmt.Errorf("%w: unknown symbol", quotes.ErrQuoteUnavailable)
	}
	return position.Quote{Price: decimal.NewFromFloat(price)}, nil
}

const testAdminKey = "test-admin-key"

func newTestServer(t *testing.T) (*httptest.Server, *deals.Service) {
	t.Helper()

	cfg := &config.Config{
		Web: config.WebConfig{
			Port:            0,
			AdminKey:        testAdminKey,
			CORSOrigins:     []string{"*"},
			SessionTTLHours: 1,
		},
	}
	log := logger.New("error")

	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "web_test.db"))
	require.NoError(t, err)
	repo := storage.NewRepository(db)

	source := &staticSource{prices: map[string]float64{"AAPL": 110}}
	notifier := notify.NewNotifier(cfg, log)
	dealSvc := deals.NewService(repo, source, nil, notifier, cfg, log)
	signalSvc := signals.NewService(repo, advisor.NewClient(cfg, log), notifier, log)

	srv := NewServer(repo, dealSvc, signalSvc, nil, source, cfg, log)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, dealSvc
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func registerTestUser(t *testing.T, ts *httptest.Server) string {
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"email":    "trader@example.com",
		"password": "hunter2hunter2",
		"name":     "Trader",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token string
	require.NoError(t, json.Unmarshal(body["token"], &token))
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/deals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/deals", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterLoginLogout(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerTestUser(t, ts)

	// Duplicate registration is rejected.
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"email": "trader@example.com", "password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Fresh login works.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{
		"email": "trader@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loginToken string
	require.NoError(t, json.Unmarshal(body["token"], &loginToken))

	// Wrong password does not.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{
		"email": "trader@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logout invalidates the session.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/deals", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDealLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerTestUser(t, ts)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/deals", token, map[string]any{
		"symbol":      "aapl",
		"direction":   "LONG",
		"quantity":    10,
		"entry_price": 100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var dealID uint
	require.NoError(t, json.Unmarshal(body["id"], &dealID))
	var symbol string
	require.NoError(t, json.Unmarshal(body["symbol"], &symbol))
	assert.Equal(t, "AAPL", symbol)

	// Invalid quantity is a 400.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/deals", token, map[string]any{
		"symbol": "AAPL", "quantity": 0, "entry_price": 100,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Close, then closing again is a 409.
	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/deals/%d/close", ts.URL, dealID), token,
		map[string]any{"exit_price": 110})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pnl float64
	require.NoError(t, json.Unmarshal(body["pnl"], &pnl))
	assert.Equal(t, 100.0, pnl)

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/deals/%d/close", ts.URL, dealID), token,
		map[string]any{"exit_price": 120})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Summary reflects the realized result.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var totalPnL float64
	require.NoError(t, json.Unmarshal(body["total_pnl"], &totalPnL))
	assert.Equal(t, 100.0, totalPnL)
	var realized float64
	require.NoError(t, json.Unmarshal(body["realized_pnl_total"], &realized))
	assert.Equal(t, 100.0, realized)
}

func TestLatestSnapshotEndpoint(t *testing.T) {
	ts, dealSvc := newTestServer(t)
	token := registerTestUser(t, ts)

	// No snapshot recorded yet.
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/summary/snapshot", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/deals", token, map[string]any{
		"symbol": "AAPL", "direction": "LONG", "quantity": 10, "entry_price": 100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, dealSvc.SaveSnapshot())

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/summary/snapshot", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var invested float64
	require.NoError(t, json.Unmarshal(body["total_invested"], &invested))
	assert.Equal(t, 1000.0, invested)
}

func TestSignalsAdminOnly(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerTestUser(t, ts)

	// Regular users cannot create signals.
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/signals", token, map[string]any{
		"symbol": "INFY", "entry_price": 1500,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The admin key can.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/signals", testAdminKey, map[string]any{
		"symbol":      "INFY",
		"direction":   "LONG",
		"entry_price": 1500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var target float64
	require.NoError(t, json.Unmarshal(body["target_price"], &target))
	assert.Equal(t, 1650.0, target, "default target is 10%% above entry")

	// Users can read them.
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/signals", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQuoteEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerTestUser(t, ts)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/quotes/AAPL", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var price float64
	require.NoError(t, json.Unmarshal(body["price"], &price))
	assert.Equal(t, 110.0, price)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/quotes/NOPE", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHoldingsUnavailableWithoutBroker(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerTestUser(t, ts)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/holdings", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/orders/size?symbol=AAPL", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
