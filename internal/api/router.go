package api

import (
	"net/http"
	"strings"

	"storytime/internal/api/handlers"
	"storytime/internal/app"
	"storytime/internal/logger"
	"storytime/internal/metrics"
	"storytime/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP routes of the API
func NewRouter(config *app.Config) http.Handler {
	authHandlers := handlers.NewAuthHandlers(config)
	storyHandlers := handlers.NewStoryHandlers(config)
	adventureHandlers := handlers.NewAdventureHandlers(config)
	instructionHandlers := handlers.NewInstructionHandlers(config)
	mediaHandlers := handlers.NewMediaHandlers(config)
	libraryHandlers := handlers.NewLibraryHandlers(config)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handlers.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AppConfig.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", metrics.Handler())

	// Generated media written by the local store
	if local, ok := config.Store.(*storage.LocalStore); ok {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(local.Root()))))
	}

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Get("/health", handlers.HealthHandler(config.DB))
		api.Post("/register", authHandlers.RegisterHandler)
		api.Post("/login", authHandlers.LoginHandler)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(handlers.AuthMiddleware(config.Tokens))

			protected.Get("/me", authHandlers.MeHandler)
			protected.Get("/models", libraryHandlers.GetModelsHandler)
			protected.Get("/library", libraryHandlers.LibraryHandler)

			protected.Route("/stories", func(stories chi.Router) {
				stories.Get("/", storyHandlers.ListHandler)
				stories.Post("/stream", storyHandlers.CreateStreamHandler)
				stories.Get("/{id}", storyHandlers.GetHandler)
				stories.Delete("/{id}", storyHandlers.DeleteHandler)
				stories.Post("/{id}/video", storyHandlers.VideoStreamHandler)
			})

			protected.Route("/adventures", func(adventures chi.Router) {
				adventures.Get("/", adventureHandlers.ListHandler)
				adventures.Post("/stream", adventureHandlers.StartStreamHandler)
				adventures.Get("/{id}", adventureHandlers.GetHandler)
				adventures.Delete("/{id}", adventureHandlers.DeleteHandler)
				adventures.Post("/{id}/stream", adventureHandlers.ContinueStreamHandler)
			})

			protected.Get("/instruction", instructionHandlers.GetHandler)
			protected.Put("/instruction", instructionHandlers.UpsertHandler)
			protected.Delete("/instruction", instructionHandlers.DeleteHandler)

			protected.Post("/images/coloring", mediaHandlers.ColoringHandler)
			protected.Post("/transcribe", mediaHandlers.TranscribeHandler)
		})
	})

	// Serve the pre-built web UI
	if webDir := strings.TrimSpace(config.AppConfig.Server.WebDir); webDir != "" {
		logger.Log.WithField("dir", webDir).Info("Serving web UI")
		r.Handle("/*", http.FileServer(http.Dir(webDir)))
	}

	return r
}
