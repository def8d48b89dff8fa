// Package server exposes the ledger over HTTP. All mutations arrive as JSON
// posts carrying the acting wallet; the server validates wallet encoding and
// translates ledger errors to status codes, but every rule lives in the
// service layer.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/propvest/ledger/internal/ledger"
)

// Config holds the HTTP server configuration.
type Config struct {
	Logger  *slog.Logger
	Service *ledger.Service

	Bind string
	Port int

	// AllowedOrigins configures CORS. Empty disables cross-origin access.
	AllowedOrigins []string

	// RequestsPerMinute is the per-IP rate limit. Zero disables limiting.
	RequestsPerMinute int
	Burst             int

	// ReadyCheck reports backing-store health for /readyz. Nil means always
	// ready.
	ReadyCheck func(ctx context.Context) error

	// OnRamp is the funding surface of an in-process settlement backend.
	// When set, account deposit and balance routes are registered; external
	// settlement backends leave it nil and fund accounts out of band.
	OnRamp OnRamp
}

// OnRamp credits and reads native-currency accounts held by an in-process
// settlement backend.
type OnRamp interface {
	Deposit(account string, amount uint64) error
	AccountBalance(account string) uint64
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Service == nil {
		return fmt.Errorf("service is required")
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Burst == 0 {
		c.Burst = 20
	}
	return nil
}

// Server is the ledger HTTP API.
type Server struct {
	log    *slog.Logger
	svc    *ledger.Service
	cfg    Config
	router *chi.Mux
	srv    *http.Server
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate server config: %w", err)
	}

	s := &Server{
		log:    cfg.Logger,
		svc:    cfg.Service,
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	if len(s.cfg.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}
	if s.cfg.RequestsPerMinute > 0 {
		limiter := newRateLimiter(s.cfg.RequestsPerMinute, s.cfg.Burst)
		s.router.Use(limiter.middleware(s))
	}

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.cfg.OnRamp != nil {
			r.Route("/accounts/{wallet}", func(r chi.Router) {
				r.Post("/deposit", s.handleDeposit)
				r.Get("/balance", s.handleAccountBalance)
			})
		}

		r.Route("/platform", func(r chi.Router) {
			r.Post("/initialize", s.handleInitializePlatform)
			r.Put("/wallet", s.handleUpdatePlatformWallet)
			r.Get("/", s.handleGetPlatform)
		})

		r.Route("/whitelist", func(r chi.Router) {
			r.Post("/", s.handleAddToWhitelist)
			r.Delete("/{wallet}", s.handleRemoveFromWhitelist)
			r.Get("/{wallet}", s.handleIsWhitelisted)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", s.handleCreateCampaign)
			r.Get("/", s.handleListCampaigns)
			r.Route("/{campaign}", func(r chi.Router) {
				r.Get("/", s.handleGetCampaign)
				r.Post("/invest", s.handleInvest)
				r.Post("/finalize", s.handleFinalizeCampaign)
				r.Post("/cancel", s.handleCancelCampaign)
				r.Post("/refund", s.handleClaimRefund)
				r.Post("/claim-tokens", s.handleClaimTokens)
				r.Get("/investors", s.handleListInvestorRecords)
				r.Get("/investors/{investor}", s.handleGetInvestorRecord)
			})
		})

		r.Route("/pools", func(r chi.Router) {
			r.Post("/", s.handleInitializePool)
			r.Route("/{pool}", func(r chi.Router) {
				r.Get("/", s.handleGetPool)
				r.Post("/deposit", s.handleDepositDividend)
				r.Post("/distribute", s.handleStartDistribution)
				r.Post("/claim", s.handleClaimDividend)
				r.Put("/authority", s.handleUpdateAuthority)
				r.Get("/claimable", s.handleGetClaimableAmount)
				r.Get("/distributions/{epoch}", s.handleGetDistribution)
			})
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ReadyCheck != nil {
		if err := s.cfg.ReadyCheck(r.Context()); err != nil {
			s.log.Error("readiness check failed", "error", err)
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}
