package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/kfupm-ics/soccer-tournament/handlers"
	"github.com/kfupm-ics/soccer-tournament/middleware"
	"github.com/kfupm-ics/soccer-tournament/models"
)

type Config struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

func SetupRoutes(
	router *chi.Mux,
	cfg Config,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	teamHandler *handlers.TeamHandler,
	matchHandler *handlers.MatchHandler,
	wsHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Login and signup get a tighter budget than the rest of the API.
	authLimiter := middleware.NewIPRateLimiter(rate.Limit(1), 5)
	router.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(authLimiter))
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
	})

	// Guest browsing requires no account.
	router.Get("/tournaments", tournamentHandler.ListTournaments)
	router.Get("/tournaments/{trID}/matches", matchHandler.ListPlayedMatches)
	router.Get("/tournaments/{trID}/matches/{matchNo}", matchHandler.GetPlayedMatch)
	router.Get("/tournaments/{trID}/next-matches", matchHandler.ListScheduledMatches)
	router.Get("/tournaments/{trID}/teams/{teamID}/players", teamHandler.ListRoster)
	router.Get("/teams", teamHandler.ListTeams)
	router.Get("/players", teamHandler.ListPlayers)

	router.Get("/ws/tournaments/{trID}", wsHandler.Subscribe)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.JWTSecret))
		r.Use(middleware.RequireRole(models.RoleAdmin))

		r.Post("/tournaments", tournamentHandler.CreateTournament)
		r.Delete("/tournaments/{trID}", tournamentHandler.DeleteTournament)

		r.Post("/tournaments/{trID}/teams", tournamentHandler.RegisterTeam)
		r.Post("/tournaments/{trID}/teams/{teamID}/players/{playerID}", tournamentHandler.ApprovePlayer)
		r.Post("/tournaments/{trID}/teams/{teamID}/captain/{playerID}", tournamentHandler.SelectCaptain)

		r.Post("/tournaments/{trID}/matches", matchHandler.CreatePlayedMatch)
		r.Put("/tournaments/{trID}/matches/{matchNo}", matchHandler.UpdatePlayedMatch)
		r.Delete("/tournaments/{trID}/matches/{matchNo}", matchHandler.DeletePlayedMatch)

		r.Post("/tournaments/{trID}/next-matches", matchHandler.CreateScheduledMatch)
		r.Put("/tournaments/{trID}/next-matches/{matchNo}", matchHandler.UpdateScheduledMatch)
		r.Delete("/tournaments/{trID}/next-matches/{matchNo}", matchHandler.DeleteScheduledMatch)
		r.Post("/tournaments/{trID}/next-matches/{matchNo}/play", matchHandler.TransitionToPlayed)

		r.Put("/teams/{teamID}/crest", teamHandler.UploadCrest)
	})
}
