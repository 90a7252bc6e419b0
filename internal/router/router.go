package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"estudai-backend/internal/handlers"
	"estudai-backend/internal/middleware"
	"estudai-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	quizHandler *handlers.QuizHandler,
	jobHandler *handlers.JobHandler,
	videosHandler *handlers.VideosHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Video search hits an upstream quota, keep it at 30 req/min per IP
	videoLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Weekly Quiz Routes ────
		r.Route("/quizzes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/weekly", quizHandler.GenerateWeekly)
			r.Get("/weekly/latest", quizHandler.GetLatest)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me/weekly-quiz", quizHandler.GetCurrent)
			r.Post("/events/content-completed", quizHandler.ContentCompleted)
		})

		// ──── AI Health ────
		r.Get("/ai/health", quizHandler.AIHealth)

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.GetJob)
		})

		// ──── Video Routes ────
		r.Route("/videos", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(videoLimiter.Middleware)
				r.Get("/", videosHandler.Search)
				r.Post("/batch", videosHandler.Batch)
			})

			r.Route("/cache", func(r chi.Router) {
				r.Get("/stats", videosHandler.CacheStats)
				r.Post("/purge", videosHandler.CachePurge)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
