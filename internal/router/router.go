package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	widgetHandler *handlers.WidgetHandler,
	motionHandler *handlers.MotionHandler,
	wsHub *websocket.Hub,
	sessionLimiter *middleware.RateLimiter,
	site fs.FS,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Motion Routes (public) ────
		r.Get("/motion/config", motionHandler.Config)

		// ──── Widget Routes ────
		r.Route("/widget", func(r chi.Router) {
			r.With(sessionLimiter.Middleware).Post("/sessions", widgetHandler.CreateSession)

			r.Group(func(r chi.Router) {
				r.Use(sessionAuth.Middleware)
				r.Get("/session", widgetHandler.GetSession)
				r.Post("/toggle", widgetHandler.Toggle)
				r.Post("/open", widgetHandler.Open)
				r.Post("/close", widgetHandler.Close)
				r.Post("/outside-click", widgetHandler.OutsideClick)
				r.Post("/messages", widgetHandler.SendMessage)
				r.Get("/transcript", widgetHandler.Transcript)
			})

			// ──── WebSocket ────
			r.Get("/ws", wsHub.HandleWebSocket)
		})
	})

	// ──── Static Site ────
	r.Handle("/*", http.FileServer(http.FS(site)))

	return r
}
