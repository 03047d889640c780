// Package http is the JSON API surface: authentication, ledger CRUD,
// categories, savings goals, monthly budgets and the dashboard reads.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pocketbook/internal/auth"
	"pocketbook/internal/cache"
	applog "pocketbook/internal/log"
	"pocketbook/internal/services"
	"pocketbook/internal/storage"
)

type Server struct {
	http.Server

	storage *storage.SQLiteRepository
	ledger  *services.LedgerService
	goals   *services.GoalService
	budgets *services.BudgetService
	auth    *auth.Service

	rateLimiter *rateLimiter

	// Dashboard payloads are cached per user and month and invalidated
	// on any ledger write for that user.
	summaryCache   *cache.LRUCache[summaryResponse]
	breakdownCache *cache.LRUCache[[]breakdownSlice]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

type Deps struct {
	Storage *storage.SQLiteRepository
	Ledger  *services.LedgerService
	Goals   *services.GoalService
	Budgets *services.BudgetService
	Auth    *auth.Service

	CacheSize int
	CacheTTL  time.Duration
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.CacheSize <= 0 {
		deps.CacheSize = 512
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		storage:          deps.Storage,
		ledger:           deps.Ledger,
		goals:            deps.Goals,
		budgets:          deps.Budgets,
		auth:             deps.Auth,
		rateLimiter:      newRateLimiter(),
		summaryCache:     cache.NewLRUCache[summaryResponse](deps.CacheSize, deps.CacheTTL),
		breakdownCache:   cache.NewLRUCache[[]breakdownSlice](deps.CacheSize, deps.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	s.summaryCache.StartJanitor(10*time.Minute, s.stopCacheCleanup)
	s.breakdownCache.StartJanitor(10*time.Minute, s.stopCacheCleanup)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("POST /auth/login", s.withMiddleware(s.handleLogin))

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.auth.Middleware(h).ServeHTTP(w, r)
		})
	}

	mux.HandleFunc("GET /auth/me", authed(s.handleMe))

	mux.HandleFunc("POST /transactions", authed(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions", authed(s.handleListTransactions))
	mux.HandleFunc("GET /transactions/{id}", authed(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", authed(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", authed(s.handleDeleteTransaction))

	mux.HandleFunc("POST /categories", authed(s.handleCreateCategory))
	mux.HandleFunc("GET /categories", authed(s.handleListCategories))
	mux.HandleFunc("PUT /categories/{id}", authed(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", authed(s.handleDeleteCategory))

	mux.HandleFunc("POST /goals", authed(s.handleCreateGoal))
	mux.HandleFunc("GET /goals", authed(s.handleListGoals))
	mux.HandleFunc("GET /goals/{id}", authed(s.handleGetGoal))
	mux.HandleFunc("PUT /goals/{id}", authed(s.handleUpdateGoal))
	mux.HandleFunc("POST /goals/{id}/adjust", authed(s.handleAdjustGoal))
	mux.HandleFunc("DELETE /goals/{id}", authed(s.handleDeleteGoal))

	mux.HandleFunc("GET /budgets/{month}", authed(s.handleGetBudget))
	mux.HandleFunc("PUT /budgets/{month}", authed(s.handleSetBudget))
	mux.HandleFunc("DELETE /budgets/{month}", authed(s.handleClearBudget))

	mux.HandleFunc("GET /dashboard/summary", authed(s.handleDashboardSummary))
	mux.HandleFunc("GET /dashboard/breakdown", authed(s.handleDashboardBreakdown))
	mux.HandleFunc("GET /dashboard/day", authed(s.handleDashboardDay))
	mux.HandleFunc("GET /dashboard/week", authed(s.handleDashboardWeek))
	mux.HandleFunc("GET /dashboard/month", authed(s.handleDashboardMonth))

	return s
}

// Shutdown stops the cache janitors and rate limiter before draining the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting on writes, a request
// id and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.storage.ListUserIDs(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateDashboards drops every cached dashboard for the user.
func (s *Server) invalidateDashboards(userID string) {
	s.summaryCache.DeletePrefix(userID + ":")
	s.breakdownCache.DeletePrefix(userID + ":")
}
