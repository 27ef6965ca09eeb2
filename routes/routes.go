package routes

import (
	"github.com/Dosada05/matchmaking-system/handlers"
	"github.com/Dosada05/matchmaking-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	authHandler *handlers.AuthHandler,
	queueHandler *handlers.QueueHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret []byte,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		// Публичные маршруты
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/matches/history", matchHandler.History)

		// Маршруты, требующие токен
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.Post("/queue/join", queueHandler.Join)
			r.Post("/queue/cancel", queueHandler.Cancel)
			r.Get("/queue/status", queueHandler.Status)
			r.Get("/matches/last", matchHandler.Last)
		})
	})

	router.Get("/ws/queue/{gameMode}", webSocketHandler.ServeWs)
}
