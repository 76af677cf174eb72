package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"bandchat/services"
)

// Services bundles what the router serves.
type Services struct {
	Auth     *services.AuthService
	Chats    *services.ChatService
	Messages *services.MessageService
	Uploads  *services.UploadService
	// MaxUploadBytes bounds multipart request bodies.
	MaxUploadBytes int64
}

func NewRouter(logger zerolog.Logger, svc Services) *chi.Mux {
	authH := NewAuthHandler(svc.Auth)
	chatH := NewChatHandler(svc.Chats)
	msgH := NewMessageHandler(svc.Messages)
	upH := NewUploadHandler(svc.Uploads, svc.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(instrument)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         86400,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondWithSuccess(w, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(WithAuth(svc.Auth))

			r.Get("/rooms", chatH.Rooms)
			r.Post("/rooms", chatH.Create)
			r.Delete("/rooms/{id}", chatH.Delete)
			r.Post("/rooms/{id}/participants", chatH.AddParticipant)
			r.Get("/rooms/{id}/messages", msgH.ListMessages)
			r.Post("/rooms/{id}/messages", msgH.PostMessage)
			r.Post("/uploads", upH.Upload)
			r.Get("/uploads/{id}", upH.Download)
		})
	})

	return r
}
