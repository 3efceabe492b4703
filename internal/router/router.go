package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studyhall-backend/internal/handlers"
	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	lessonHandler *handlers.LessonHandler,
	sessionHandler *handlers.SessionHandler,
	annotationHandler *handlers.AnnotationHandler,
	noteHandler *handlers.NoteHandler,
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

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// ──── User & Settings Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", authHandler.Me)
			r.Put("/auto-pause", authHandler.SetAutoPause)
		})

		// ──── Catalogue Routes ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/courses/{courseID}", lessonHandler.Course)
			r.Get("/modules/{moduleID}", lessonHandler.Module)
			r.Get("/modules/{moduleID}/progress", lessonHandler.ModuleProgress)
		})

		// ──── Lesson Routes ────
		r.Route("/lessons/{lessonID}", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", lessonHandler.Get)
			r.Get("/quizzes", lessonHandler.Quizzes)
			r.Get("/neighbors", lessonHandler.Neighbors)

			// Live session lifecycle
			r.Route("/session", func(r chi.Router) {
				r.Post("/start", sessionHandler.Start)
				r.Post("/end", sessionHandler.End)
				r.Post("/pause", sessionHandler.Pause)
				r.Post("/resume", sessionHandler.Resume)
				r.Post("/connectivity", sessionHandler.Connectivity)
				r.Post("/surface", sessionHandler.Surface)
				r.Get("/score", sessionHandler.Score)
			})

			r.Post("/quizzes/{quizID}/submit", sessionHandler.Submit)

			// Reconciliation
			r.Post("/sync", sessionHandler.ForceSync)
			r.Get("/sync/log", sessionHandler.SyncLog)

			// Note
			r.Get("/note", noteHandler.Get)
			r.Put("/note", noteHandler.Put)

			// Annotations scoped to the lesson
			r.Get("/highlights", annotationHandler.ListHighlights)
			r.Post("/highlights", annotationHandler.CreateHighlight)
			r.Get("/anchors", annotationHandler.Anchors)

			r.Route("/bookmarks", func(r chi.Router) {
				r.Post("/draft", annotationHandler.BeginDraft)
				r.Patch("/draft", annotationHandler.UpdateDraft)
				r.Post("/draft/tags", annotationHandler.AttachDraftTag)
				r.Post("/draft/commit", annotationHandler.CommitDraft)
				r.Delete("/draft", annotationHandler.CancelDraft)
				r.Post("/{bookmarkID}/edit", annotationHandler.EditBookmark)
			})
		})

		// ──── Cross-lesson Annotation Routes ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/bookmarks", annotationHandler.Aggregate)
			r.Delete("/bookmarks/{bookmarkID}", annotationHandler.DeleteBookmark)
			r.Delete("/highlights/{highlightID}", annotationHandler.DeleteHighlight)
			r.Get("/labels", annotationHandler.ListLabels)
			r.Post("/labels", annotationHandler.CreateLabel)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.ServeHTTP)
	})

	return r
}
