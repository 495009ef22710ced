// Package http exposes the club's REST API: authentication, the upcoming
// games window with RSVPs, the roster, and the treasury.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quadra/internal/identity"
	"quadra/internal/metrics"
	"quadra/internal/services"
)

type Server struct {
	identity *identity.Service
	games    *services.GameService
	finance  *services.FinanceService
	members  *services.MemberService

	ready func() error
}

func NewServer(ident *identity.Service, games *services.GameService, finance *services.FinanceService, members *services.MemberService) *Server {
	return &Server{
		identity: ident,
		games:    games,
		finance:  finance,
		members:  members,
	}
}

// SetReadyCheck installs the probe backing /readyz, typically a database
// ping.
func (s *Server) SetReadyCheck(f func() error) { s.ready = f }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(logRequests)
	r.Use(securityHeaders)
	r.Use(newRateLimiter(120).middleware)
	r.Use(instrument)
	r.Use(authenticate(s.identity))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.With(requireAuth).Get("/me", s.handleMe)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/games", func(r chi.Router) {
			r.Get("/", s.handleListGames)
			r.Get("/{id}/attendees", s.handleAttendees)
			r.Put("/{id}/attendance", s.handleSetAttendance)
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.handleRoster)
			r.Post("/{id}/promote", s.handlePromote)
		})

		r.Route("/finance", func(r chi.Router) {
			r.Get("/balance", s.handleBalance)
			r.Get("/summary", s.handleSummary)
			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
		})
	})

	return r
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
