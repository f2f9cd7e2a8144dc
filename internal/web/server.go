package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/foliodesk/foliodesk/internal/broker"
	"github.com/foliodesk/foliodesk/internal/config"
	"github.com/foliodesk/foliodesk/internal/deals"
	"github.com/foliodesk/foliodesk/internal/logger"
	"github.com/foliodesk/foliodesk/internal/quotes"
	"github.com/foliodesk/foliodesk/internal/signals"
	"github.com/foliodesk/foliodesk/internal/storage"
)

type Server struct {
	httpServer *http.Server
	repo       *storage.Repository
	deals      *deals.Service
	signals    *signals.Service
	broker     *broker.Client // nil when the broker integration is disabled
	source     quotes.Source
	config     *config.Config
	logger     *logger.Logger
}

func NewServer(
	repo *storage.Repository,
	dealSvc *deals.Service,
	signalSvc *signals.Service,
	brk *broker.Client,
	source quotes.Source,
	cfg *config.Config,
	log *logger.Logger,
) *Server {
	s := &Server{
		repo:    repo,
		deals:   dealSvc,
		signals: signalSvc,
		broker:  brk,
		source:  source,
		config:  cfg,
		logger:  log,
	}

	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Web.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/auth/logout", s.handleLogout)

			r.Get("/deals", s.handleListDeals)
			r.Post("/deals", s.handleOpenDeal)
			r.Get("/deals/{id}", s.handleGetDeal)
			r.Post("/deals/{id}/close", s.handleCloseDeal)
			r.Get("/summary", s.handleSummary)
			r.Get("/summary/snapshot", s.handleLatestSnapshot)

			r.Get("/signals", s.handleListSignals)
			r.Get("/quotes/{symbol}", s.handleQuote)
			r.Get("/holdings", s.handleHoldings)
			r.Get("/orders/size", s.handleOrderSize)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/signals", s.handleCreateSignal)
				r.Post("/signals/{id}/close", s.handleCloseSignal)
			})
		})
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.config.Web.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path,
			"took", time.Since(start).String())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
