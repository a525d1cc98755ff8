package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP router with middleware and every route.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	h.RegisterRoutes(r)

	return r
}

// RegisterRoutes registers the /api routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.CreateUser)
			r.Post("/login", h.Login)
			r.Get("/{userID}", h.GetUser)
			r.Get("/{userID}/stats", h.GetUserStats)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Get("/user/{userID}", h.ListSessions)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/explain", h.Explain)
			r.Post("/adaptive-question", h.AdaptiveQuestion)
			r.Post("/chat", h.Chat)
			r.Get("/chat/{userID}", h.Transcript)
			r.Delete("/chat/{userID}", h.ClearTranscript)
			r.Get("/analyze/{userID}", h.AnalyzePatterns)
			r.Post("/study-plan", h.StudyPlan)
			r.Get("/feedback/{userID}", h.Feedback)
		})
	})
}
