package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"tesoretto/internal/cache"
	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
	"tesoretto/internal/ports"
	"tesoretto/internal/services"
)

// Deps are the services the API serves.
type Deps struct {
	Progress   *services.ProgressService
	Processor  *services.RecurringProcessor
	Categories ports.CategoryReader
	// Health reports backend readiness; nil means always healthy.
	Health func(context.Context) error
}

type Options struct {
	RateLimitPerMinute int
	ReportCacheTTL     time.Duration
	Currency           string
	Currencies         core.CurrencyTable
	Logger             *applog.Logger
	// Now supplies the default period and as-of date; defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server

	deps       Deps
	currency   string
	currencies core.CurrencyTable
	logger     *applog.Logger
	now        func() time.Time

	limiter      *rateLimiter
	budgetCache  *cache.LRUCache[[]services.BudgetProgress]
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Currencies == nil {
		opts.Currencies = core.DefaultCurrencies()
	}
	if opts.Currency == "" {
		opts.Currency = "EUR"
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}
	// Runs by a separate recurring-worker do not purge this cache, so
	// entries only live for a short TTL.
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = time.Minute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		deps:         deps,
		currency:     opts.Currency,
		currencies:   opts.Currencies,
		logger:       opts.Logger,
		now:          opts.Now,
		limiter:      newRateLimiter(opts.RateLimitPerMinute),
		budgetCache:  cache.NewLRUCache[[]services.BudgetProgress](100, opts.ReportCacheTTL),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.budgetCache)

	mux.Handle("/healthz", s.withMiddleware(s.handleHealth, false))
	mux.Handle("/api/budgets/progress", s.withMiddleware(s.handleBudgetProgress, true))
	mux.Handle("/api/goals/progress", s.withMiddleware(s.handleGoalProgress, true))
	mux.Handle("/api/recurring/run", s.withMiddleware(s.handleRecurringRun, true))
	mux.Handle("/", s.withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	}, false))

	return s
}

// Start launches background maintenance; call before ListenAndServe.
func (s *Server) Start() {
	s.cacheManager.StartCleanup(10 * time.Minute)
	go s.limiter.startCleanup(5 * time.Minute)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func budgetCacheKey(ownerID int64, year, month int) string {
	return fmt.Sprintf("%d:%04d-%02d", ownerID, year, month)
}

func (s *Server) budgetReport(ctx context.Context, ownerID int64, year, month int) ([]services.BudgetProgress, error) {
	key := budgetCacheKey(ownerID, year, month)
	if report, ok := s.budgetCache.Get(key); ok {
		return report, nil
	}
	report, err := s.deps.Progress.BudgetReport(ctx, ownerID, year, month)
	if err != nil {
		return nil, err
	}
	s.budgetCache.Set(key, report)
	return report, nil
}

// categoryNames never fails the request: missing names render as the
// fallback label.
func (s *Server) categoryNames(ctx context.Context) map[int64]string {
	if s.deps.Categories == nil {
		return nil
	}
	names, err := s.deps.Categories.CategoryNames(ctx)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to load category names", applog.FieldError, err)
		return nil
	}
	return names
}
