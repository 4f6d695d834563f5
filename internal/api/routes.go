package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RegisterRoutes sets up all the API endpoints and middleware for the application.
func (s *Server) RegisterRoutes(r *chi.Mux) {
	// --- Global Middleware (Applied to ALL routes) ---
	r.Use(middleware.Logger)    // Logs incoming requests
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", s.config.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Auth routes (no token required)
	r.Post("/signup", s.handleSignup)
	r.Post("/login", s.handleLogin)
	r.Get("/auth/google/login", s.handleGoogleLogin)
	r.Get("/auth/google/callback", s.handleGoogleCallback)

	// --- Authenticated Routes ---
	// Everything below requires a valid token for a live (non-deleted) user.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/notifications/stream", s.handleSSE)

		// User routes
		r.Get("/users", s.handleListUsers)
		r.Get("/users/self", s.handleGetSelf)
		r.Delete("/users/self", s.handleDeleteSelf)

		// Invitation routes
		r.Post("/invitations", s.handleCreateInvitation)
		r.Get("/invitations", s.handleListInvitations)
		r.Put("/invitations/{invitationID}/accept", s.handleAcceptInvitation)
		r.Put("/invitations/{invitationID}/decline", s.handleDeclineInvitation)
		r.Put("/invitations/{invitationID}/cancel", s.handleCancelInvitation)

		// Game routes
		r.Get("/games", s.handleListGames)
		r.Get("/games/{gameID}", s.handleGetGame)
		r.Post("/games/{gameID}/move", s.handleMove)
		r.Post("/games/{gameID}/forfeit", s.handleForfeit)
		r.Post("/games/{gameID}/suggest", s.handleSuggestMove)

		// Move audit log
		r.Get("/moves", s.handleListMoves)
	})
}
