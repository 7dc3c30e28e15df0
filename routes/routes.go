package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/boulodrome/tournament-engine/handlers"
	"github.com/boulodrome/tournament-engine/middleware"
)

// SetupRoutes wires every endpoint. Team-facing match actions carry
// their own PIN authentication; /admin requires a bearer token with an
// organizer or admin role.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	matchHandler *handlers.MatchHandler,
	tournamentHandler *handlers.TournamentHandler,
	courtHandler *handlers.CourtHandler,
	adminHandler *handlers.AdminHandler,
	wsHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/overview", tournamentHandler.Overview)
		r.Get("/{tournamentID}/standings", tournamentHandler.Standings)
		r.Get("/{tournamentID}/matches", tournamentHandler.Matches)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.Get)
		r.Post("/{matchID}/activate", matchHandler.Activate)
		r.Post("/{matchID}/result", matchHandler.SubmitResult)
		r.Post("/{matchID}/validate", matchHandler.ValidateResult)
		r.Post("/{matchID}/evidence", matchHandler.AttachEvidence)
	})

	router.Get("/teams/{teamID}/next-match", matchHandler.NextForTeam)
	router.Get("/courts", courtHandler.List)
	router.Get("/ws/tournaments/{tournamentID}", wsHandler.Subscribe)

	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOrganizer))

		r.Post("/tournaments/{tournamentID}/generate", adminHandler.GenerateMatches)
		r.Post("/tournaments/{tournamentID}/advance", adminHandler.Advance)
		r.Post("/tournaments/{tournamentID}/automation/reset", adminHandler.ResetAutomation)
		r.Post("/tournaments/{tournamentID}/assign-courts", adminHandler.AssignCourts)
		r.Post("/matches/{matchID}/cancel", adminHandler.CancelMatch)
	})
}
