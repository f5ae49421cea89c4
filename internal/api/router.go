package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/timeshare-be/internal/api/handlers"
	"github.com/isdelr/timeshare-be/internal/auth"
	"github.com/isdelr/timeshare-be/internal/models"
	"github.com/isdelr/timeshare-be/internal/monitoring"
	"github.com/isdelr/timeshare-be/internal/services"
	"github.com/isdelr/timeshare-be/internal/websocket"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Hub            *websocket.Hub
	Tokens         *auth.Manager
	Users          services.UserServiceProvider
	Sharing        services.SharingServiceProvider
	Times          services.TimeServiceProvider
	Team           services.TeamServiceProvider
	Events         services.EventServiceProvider
	Rotator        monitoring.CodeRotationController
	Stats          handlers.StatsSource
	AllowedOrigins []string
	RotationEvery  time.Duration
	SecureCookies  bool
	Version        string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.Stats, deps.Version)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Tokens, deps.SecureCookies)
	sharingHandler := handlers.NewSharingHandler(deps.Sharing, deps.Users, deps.Hub, deps.RotationEvery)
	timeHandler := handlers.NewTimeHandler(deps.Times)
	teamHandler := handlers.NewTeamHandler(deps.Team)
	eventHandler := handlers.NewEventHandler(deps.Events)
	rotationHandler := handlers.NewRotationHandler(deps.Rotator)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.AllowedOrigins)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Get)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/logout", userHandler.Logout)
		})

		// Everything below requires a session
		r.Group(func(r chi.Router) {
			r.Use(deps.Tokens.Middleware())

			r.Get("/ws", wsHandler.Serve)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", userHandler.GetMe)
				r.Put("/", userHandler.UpdateMe)
				r.Put("/password", userHandler.ChangePassword)
			})
			r.Get("/users/{id}/profile", teamHandler.Profile)

			r.Route("/sharing-code", func(r chi.Router) {
				r.Get("/", sharingHandler.GetCode)
				r.Post("/", sharingHandler.Redeem)
			})

			r.Route("/time", func(r chi.Router) {
				r.Get("/clock", timeHandler.Status)
				r.Post("/clock", timeHandler.ClockIn)
				r.Put("/clock", timeHandler.ClockOut)
				r.Get("/entries", timeHandler.ListEntries)
				r.Patch("/entries/{id}", timeHandler.UpdateEntry)
				r.Delete("/entries/{id}", timeHandler.DeleteEntry)
			})

			r.Get("/team/members", teamHandler.Members)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleAdmin))
				r.Route("/code-rotation", func(r chi.Router) {
					r.Get("/", rotationHandler.Status)
					r.Post("/", rotationHandler.Start)
					r.Delete("/", rotationHandler.Stop)
				})
				r.Get("/events", eventHandler.GetRecent)
			})
		})
	})

	return r
}
