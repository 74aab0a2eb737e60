package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"budgetdesk/internal/backend"
	"budgetdesk/internal/core"
	"budgetdesk/internal/log"
	"budgetdesk/internal/middleware/auth"
	"budgetdesk/internal/middleware/ratelimit"
	"budgetdesk/internal/middleware/security"
	"budgetdesk/internal/middleware/trace"
	"budgetdesk/internal/sheets"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewServer. Services is required; the rest is optional.
type Options struct {
	Addr     string
	Services *backend.Services
	// Store is checked by /readyz.
	Store Pinger
	// Budgets enables POST /api/budgets/import.
	Budgets            sheets.BudgetReader
	RateLimitPerMinute int
	Logger             *log.Logger
	Currency           string
}

type Server struct {
	http.Server

	svc      *backend.Services
	store    Pinger
	budgets  sheets.BudgetReader
	logger   *log.Logger
	currency string
	started  time.Time
	now      func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	headers  *security.HeadersMiddleware

	shutdownOnce sync.Once
}

// NewServer builds the router and returns a ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	if opts.Services == nil {
		return nil, errors.New("http server requires services")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	currency := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "EUR"
	}

	s := &Server{
		svc:      opts.Services,
		store:    opts.Store,
		budgets:  opts.Budgets,
		logger:   logger.WithComponent(log.ComponentHTTP),
		currency: currency,
		started:  time.Now(),
		now:      time.Now,
		detector: security.NewDetector(),
		headers:  security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(s.tracer.Middleware)
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) }))
	r.Use(s.headers.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.AllowContentType("application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, r, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	limitWrites := s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.WritesOnly, s.rateLimited)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)
		r.Get("/readyz", s.handleReady)
		r.Get("/metrics", s.handleMetrics)

		r.With(log.ComponentMiddleware(log.ComponentAuth), limitWrites).Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.svc.Auth, s.authError))
			r.Use(limitWrites)
			r.Use(auth.RequireWriteForMutations(s.authError))

			r.Get("/auth/me", s.handleMe)

			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", s.handleListSuppliers)
				r.Post("/", s.handleCreateSupplier)
				r.Get("/{id}", s.handleGetSupplier)
				r.Put("/{id}", s.handleUpdateSupplier)
				r.Delete("/{id}", s.handleDeleteSupplier)
			})

			r.Route("/contracts", func(r chi.Router) {
				r.Use(log.ComponentMiddleware(log.ComponentContract))
				r.Get("/", s.handleListContracts)
				r.Post("/", s.handleCreateContract)
				r.Get("/{id}", s.handleGetContract)
				r.Put("/{id}", s.handleUpdateContract)
				r.Delete("/{id}", s.handleDeleteContract)
				r.Post("/{id}/status", s.handleSetContractStatus)
				r.Post("/{id}/line-items", s.handleAddLineItem)
				r.Delete("/{id}/line-items/{itemID}", s.handleDeleteLineItem)
				r.Get("/{id}/schedule", s.handleContractSchedule)
				r.Get("/{id}/forecast", s.handleContractForecast)
			})

			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", s.handleListBudgets)
				r.Post("/", s.handleCreateBudget)
				r.Post("/import", s.handleImportBudgets)
				r.Get("/{id}", s.handleGetBudget)
				r.Put("/{id}", s.handleUpdateBudget)
				r.Delete("/{id}", s.handleDeleteBudget)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Use(log.ComponentMiddleware(log.ComponentExpense))
				r.Get("/", s.handleListExpenses)
				r.Post("/", s.handleCreateExpense)
				r.Get("/export.csv", s.handleExportExpenses)
				r.Get("/{id}", s.handleGetExpense)
				r.Put("/{id}", s.handleUpdateExpense)
				r.Delete("/{id}", s.handleDeleteExpense)
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", s.handleListEmployees)
				r.Post("/", s.handleCreateEmployee)
				r.Get("/cost", s.handleEmployeeCost)
				r.Get("/{id}", s.handleGetEmployee)
				r.Put("/{id}", s.handleUpdateEmployee)
				r.Delete("/{id}", s.handleDeleteEmployee)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(auth.RequireRole(core.Role.CanAdmin, s.authError))
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Get("/{id}", s.handleGetUser)
				r.Put("/{id}", s.handleUpdateUser)
				r.Delete("/{id}", s.handleDeleteUser)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Use(log.ComponentMiddleware(log.ComponentDashboard))
				r.Get("/", s.handleDashboard)
				r.Get("/reconcile", s.handleReconcile)
			})
		})
	})

	return r
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		s.logger.InfoContext(ctx, "HTTP server stopped",
			log.FieldOperation, log.OpShutdown,
			"uptime", time.Since(s.started).Round(time.Second).String())
	})

	return shutdownErr
}
