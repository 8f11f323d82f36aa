package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"contabile/internal/cache"
	"contabile/internal/catalog"
	"contabile/internal/core"
	"contabile/internal/ledger"
	"contabile/internal/log"
	"contabile/internal/middleware/security"
	"contabile/internal/middleware/trace"
	appweb "contabile/web"
)

const (
	fetchTimeout = 7 * time.Second

	cacheCardsKey = "cards"
)

type Server struct {
	http.Server
	templates *template.Template
	ledger    ledger.Store
	catalog   catalog.Source

	rateLimiter *rateLimiter
	detector    *security.Detector
	structured  *log.StructuredLogger

	// List reads are cached per card filter and invalidated on mutation.
	cardsCache    *cache.LRUCache[[]core.Card]
	expensesCache *cache.LRUCache[[]core.Transaction]
	incomesCache  *cache.LRUCache[[]core.Transaction]
	cacheManager  *cache.Manager

	staging *importStaging

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server backed by the given ledger and catalog.
func NewServer(addr string, store ledger.Store, source catalog.Source) *Server {
	mux := http.NewServeMux()

	logger := log.New(log.Config{
		Component: log.ComponentHTTP,
		Handler:   slog.Default().Handler(),
	})

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:        store,
		catalog:       source,
		rateLimiter:   newRateLimiter(),
		detector:      security.NewDetector(),
		structured:    log.NewStructuredLogger(logger),
		cardsCache:    cache.NewLRUCache[[]core.Card](10, 5*time.Minute),
		expensesCache: cache.NewLRUCache[[]core.Transaction](50, 5*time.Minute),
		incomesCache:  cache.NewLRUCache[[]core.Transaction](50, 5*time.Minute),
		cacheManager:  cache.NewManager(),
		staging:       newImportStaging(),
	}

	s.cacheManager.Register(s.cardsCache)
	s.cacheManager.Register(s.expensesCache)
	s.cacheManager.Register(s.incomesCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/dashboard", s.handleDashboard)

	mux.HandleFunc("/expenses", s.handleExpenses)
	mux.HandleFunc("/expenses/delete", s.handleDeleteExpenses)
	mux.HandleFunc("/expenses/products", s.handleExpenseProducts)

	mux.HandleFunc("/incomes", s.handleIncomes)
	mux.HandleFunc("/incomes/delete", s.handleDeleteIncomes)

	mux.HandleFunc("/cards", s.handleCreateCard)
	mux.HandleFunc("/cards/update", s.handleUpdateCard)
	mux.HandleFunc("/users", s.handleCreateUser)

	mux.HandleFunc("/aldi", s.handleAldi)
	mux.HandleFunc("/aldi/", s.handleAldiDetail)

	mux.HandleFunc("/import", s.handleImportPage)
	mux.HandleFunc("/import/upload", s.handleImportUpload)
	mux.HandleFunc("/import/confirm", s.handleImportConfirm)

	// Sections of the original admin shell that only render a stub page.
	for _, path := range []string{"/inventory", "/reports", "/profile", "/settings"} {
		mux.HandleFunc(path, s.handlePlaceholder)
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	chain := log.Middleware(logger)(headers.Middleware(s.limitWrites(mux)))
	s.Server.Handler = tracer.Middleware(chain)

	return s
}

// limitWrites applies per-IP rate limiting to mutating requests and flags
// suspicious ones before they reach a handler.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := s.detector.ExtractClientIP(r)

		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"client_ip", clientIP, "method", r.Method, "path", r.URL.Path)
		}

		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			if !s.rateLimiter.allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP, "method", r.Method, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handlePlaceholder(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimPrefix(r.URL.Path, "/")
	s.render(w, r, "placeholder.html", struct {
		Active string
		Title  string
	}{Active: title, Title: strings.ToUpper(title[:1]) + title[1:]})
}

// render executes a page template, answering 500 when templates failed to
// load at startup or execution fails.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			"template", name,
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate,
			"error_type", log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err.Error(),
			"template", name,
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// getCards returns the card list through the LRU cache.
func (s *Server) getCards(ctx context.Context) ([]core.Card, error) {
	if cards, found := s.cardsCache.Get(cacheCardsKey); found {
		return cards, nil
	}
	cctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	cards, err := s.ledger.ListCards(cctx)
	if err != nil {
		return nil, err
	}
	s.cardsCache.Set(cacheCardsKey, cards)
	return cards, nil
}

// cardKey maps a card filter to a cache key; the empty filter means all cards.
func cardKey(cardID string) string {
	if cardID == "" {
		return "all"
	}
	return cardID
}

func (s *Server) getExpenses(ctx context.Context, cardID string) ([]core.Transaction, error) {
	if items, found := s.expensesCache.Get(cardKey(cardID)); found {
		return items, nil
	}
	cctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	items, err := s.ledger.ListExpenses(cctx, cardID)
	if err != nil {
		return nil, err
	}
	s.expensesCache.Set(cardKey(cardID), items)
	return items, nil
}

func (s *Server) getIncomes(ctx context.Context, cardID string) ([]core.Transaction, error) {
	if items, found := s.incomesCache.Get(cardKey(cardID)); found {
		return items, nil
	}
	cctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	items, err := s.ledger.ListIncomes(cctx, cardID)
	if err != nil {
		return nil, err
	}
	s.incomesCache.Set(cardKey(cardID), items)
	return items, nil
}

func (s *Server) invalidateCards() {
	s.cardsCache.Delete(cacheCardsKey)
}

// invalidateExpenses drops the cached list for one card and the all-cards
// list, which any mutation dirties too.
func (s *Server) invalidateExpenses(cardID string) {
	s.expensesCache.Delete(cardKey(cardID))
	s.expensesCache.Delete(cardKey(""))
}

func (s *Server) invalidateIncomes(cardID string) {
	s.incomesCache.Delete(cardKey(cardID))
	s.incomesCache.Delete(cardKey(""))
}
