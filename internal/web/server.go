// Package web provides the HTTP surface of the election console service:
// the admin console (import validation and upload, counting, integrity
// review) and the voter console (election browsing, ballot composition).
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/uniwahl/wahlportal/internal/ballot"
	"github.com/uniwahl/wahlportal/internal/client"
	"github.com/uniwahl/wahlportal/internal/config"
	"github.com/uniwahl/wahlportal/internal/importer"
)

// Server is the HTTP server for the election console.
type Server struct {
	cfg      *config.Config
	importer *importer.Importer
	api      *client.Client
	ballots  *ballot.Store
	gate     *Gate
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, imp *importer.Importer, api *client.Client) *Server {
	s := &Server{
		cfg:      cfg,
		importer: imp,
		api:      api,
		ballots:  ballot.NewStore(),
		gate:     NewGate(),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Admin: import validation and upload
		r.Post("/validate/{kind}", s.handleValidate)
		r.Post("/validate/{kind}/export", s.handleValidateExport)
		r.Post("/upload/{kind}", s.handleUpload)
		r.Get("/template/{kind}", s.handleDownloadTemplate)

		// Admin: counting and integrity review
		r.Post("/counting/{electionID}/count", s.handleTriggerCount)
		r.Get("/counting/{electionID}/results", s.handleCountResults)
		r.Get("/integrity/audit-log", s.handleAuditLogIntegrity)
		r.Get("/integrity/all-ballots", s.handleBallotIntegrity)

		// Voter: election browsing
		r.Get("/voter/{uid}/elections", s.handleVoterElections)
		r.Get("/voter/elections/{electionID}", s.handleVoterElection)

		// Voter: ballot composition
		r.Post("/ballot", s.handleBallotCreate)
		r.Get("/ballot/{sessionID}", s.handleBallotState)
		r.Post("/ballot/{sessionID}/set", s.handleBallotSet)
		r.Post("/ballot/{sessionID}/select", s.handleBallotSelect)
		r.Post("/ballot/{sessionID}/unselect", s.handleBallotUnselect)
		r.Post("/ballot/{sessionID}/reset", s.handleBallotReset)
		r.Post("/ballot/{sessionID}/invalid", s.handleBallotToggleInvalid)
		r.Post("/ballot/{sessionID}/submit", s.handleBallotSubmit)
		r.Delete("/ballot/{sessionID}", s.handleBallotDiscard)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"ballot_sessions": s.ballots.Len(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok || time.Since(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
