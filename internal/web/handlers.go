package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/foliodesk/foliodesk/internal/deals"
	"github.com/foliodesk/foliodesk/internal/position"
	"github.com/foliodesk/foliodesk/internal/signals"
)

func parseID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// Deals

type openDealRequest struct {
	Symbol        string  `json:"symbol"`
	Direction     string  `json:"direction"`
	Quantity      int64   `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	TargetPercent float64 `json:"target_percent"`
	PlaceOrder    bool    `json:"place_order"`
}

func (s *Server) handleOpenDeal(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		respondError(w, http.StatusForbidden, "user account required")
		return
	}

	var req openDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Direction == "" {
		req.Direction = string(position.Long)
	}

	deal, err := s.deals.Open(r.Context(), deals.OpenRequest{
		UserID:        user.ID,
		Symbol:        req.Symbol,
		Direction:     req.Direction,
		Quantity:      req.Quantity,
		EntryPrice:    req.EntryPrice,
		TargetPercent: req.TargetPercent,
		PlaceOrder:    req.PlaceOrder,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, deal)
}

func (s *Server) handleListDeals(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		respondError(w, http.StatusForbidden, "user account required")
		return
	}

	dealRows, err := s.deals.List(user.ID, r.URL.Query().Get("status"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dealRows)
}

func (s *Server) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		respondError(w, http.StatusForbidden, "user account required")
		return
	}
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid deal id")
		return
	}

	deal, err := s.deals.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if deal.UserID != user.ID && !user.IsAdmin {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	respondJSON(w, http.StatusOK, deal)
}

type closeDealRequest struct {
	ExitPrice  float64 `json:"exit_price"`
	PlaceOrder bool    `json:"place_order"`
}

func (s *Server) handleCloseDeal(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		respondError(w, http.StatusForbidden, "user account required")
		return
	}
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid deal id")
		return
	}

	existing, err := s.deals.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if existing.UserID != user.ID && !user.IsAdmin {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	var req closeDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deal, err := s.deals.Close(r.Context(), id, req.ExitPrice, req.PlaceOrder)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, deal)
}

// Summary

type summaryResponse struct {
	TotalCount        int     `json:"total_count"`
	ActiveCount       int     `json:"active_count"`
	ClosedCount       int     `json:"closed_count"`
	WinningCount      int     `json:"winning_count"`
	LosingCount       int     `json:"losing_count"`
	TotalInvested     float64 `json:"total_invested"`
	TotalCurrent      float64 `json:"total_current"`
	TotalPnL          float64 `json:"total_pnl"`
	ReturnPercent     float64 `json:"return_percent"`
	WinRate           float64 `json:"win_rate"`
	RealizedPnLToday  float64 `json:"realized_pnl_today"`
	RealizedPnLTotal  float64 `json:"realized_pnl_total"`
	SkippedIDs        []uint  `json:"skipped_ids,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		respondError(w, http.StatusForbidden, "user account required")
		return
	}

	summary, skipped, err := s.deals.Summary(user.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	todayPnL, err := s.repo.GetTodayRealizedPnL(user.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	totalPnL, err := s.repo.GetTotalRealizedPnL(user.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summaryResponse{
		TotalCount:       summary.TotalCount,
		ActiveCount:      summary.ActiveCount,
		ClosedCount:      summary.ClosedCount,
		WinningCount:     summary.WinningCount,
		LosingCount:      summary.LosingCount,
		TotalInvested:    position.Round2(summary.TotalInvested),
		TotalCurrent:     position.Round2(summary.TotalCurrent),
		TotalPnL:         position.Round2(summary.TotalPnL),
		ReturnPercent:    position.Round2(summary.ReturnPercent),
		WinRate:          position.Round2(summary.WinRate),
		RealizedPnLToday: todayPnL,
		RealizedPnLTotal: totalPnL,
		SkippedIDs:       skipped,
	})
}

// handleLatestSnapshot serves the most recent portfolio-wide snapshot
// written by the refresher, for the dashboard's header totals.
func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.repo.GetLatestSnapshot()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// Signals

type createSignalRequest struct {
	Symbol      string  `json:"symbol"`
	Direction   string  `json:"direction"`
	EntryPrice  float64 `json:"entry_price"`
	TargetPrice float64 `json:"target_price"`
	StopLoss    float64 `json:"stop_loss"`
	Notes       string  `json:"notes"`
}

func (s *Server) handleCreateSignal(w http.ResponseWriter, r *http.Request) {
	var req createSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Direction == "" {
		req.Direction = string(position.Long)
	}

	signal, err := s.signals.Create(r.Context(), signals.CreateRequest{
		Symbol:      req.Symbol,
		Direction:   req.Direction,
		EntryPrice:  req.EntryPrice,
		TargetPrice: req.TargetPrice,
		StopLoss:    req.StopLoss,
		Notes:       req.Notes,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, signal)
}

func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	signalRows, err := s.signals.List(r.URL.Query().Get("status"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, signalRows)
}

type closeSignalRequest struct {
	ClosePrice float64 `json:"close_price"`
}

func (s *Server) handleCloseSignal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid signal id")
		return
	}

	var req closeSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	signal, err := s.signals.Close(id, req.ClosePrice)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, signal)
}

// Quotes and holdings

type quoteResponse struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Price7dAgo  float64 `json:"price_7d_ago,omitempty"`
	Price30dAgo float64 `json:"price_30d_ago,omitempty"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	quote, err := s.source.Fetch(r.Context(), symbol)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := quoteResponse{Symbol: symbol}
	resp.Price, _ = quote.Price.Float64()
	resp.Price7dAgo, _ = quote.Price7dAgo.Float64()
	resp.Price30dAgo, _ = quote.Price30dAgo.Float64()
	respondJSON(w, http.StatusOK, resp)
}

type orderSizeResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Budget float64 `json:"budget"`
	Lots   int64   `json:"lots"`
}

// handleOrderSize answers "how many lots of X fit in this budget". Without
// an explicit budget the broker's available cash is used.
func (s *Server) handleOrderSize(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		respondError(w, http.StatusServiceUnavailable, "broker integration disabled")
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	quote, err := s.source.Fetch(r.Context(), symbol)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	price, _ := quote.Price.Float64()

	var budget float64
	if raw := r.URL.Query().Get("budget"); raw != "" {
		budget, err = strconv.ParseFloat(raw, 64)
		if err != nil || budget <= 0 {
			respondError(w, http.StatusBadRequest, "invalid budget")
			return
		}
	} else {
		budget, err = s.broker.GetAvailableCash()
		if err != nil {
			s.logger.Error("get available cash", "error", err)
			respondError(w, http.StatusBadGateway, "broker unavailable")
			return
		}
	}

	respondJSON(w, http.StatusOK, orderSizeResponse{
		Symbol: symbol,
		Price:  price,
		Budget: budget,
		Lots:   s.broker.CalculateLots(price, budget),
	})
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		respondError(w, http.StatusServiceUnavailable, "broker integration disabled")
		return
	}

	holdings, err := s.broker.GetHoldings()
	if err != nil {
		s.logger.Error("get holdings", "error", err)
		respondError(w, http.StatusBadGateway, "broker unavailable")
		return
	}
	respondJSON(w, http.StatusOK, holdings)
}
