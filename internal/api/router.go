package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewRouter wires the API routes. avatarDir, when non-empty, is mounted as
// a static file server for uploaded avatars.
func NewRouter(apiHandler *APIHandler, avatarDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			// Flashcard decks
			r.Get("/decks", apiHandler.ListDecksHandler)
			r.Post("/decks", apiHandler.CreateDeckHandler)
			r.Get("/decks/{deckID}", apiHandler.GetDeckHandler)
			r.Delete("/decks/{deckID}", apiHandler.DeleteDeckHandler)

			// Quiz decks and attempts
			r.Get("/quizzes", apiHandler.ListQuizDecksHandler)
			r.Post("/quizzes", apiHandler.CreateQuizDeckHandler)
			r.Get("/quizzes/{quizID}", apiHandler.GetQuizDeckHandler)
			r.Delete("/quizzes/{quizID}", apiHandler.DeleteQuizDeckHandler)
			r.Get("/attempts", apiHandler.ListAttemptsHandler)
			r.Get("/progress", apiHandler.ProgressHandler)

			// AI flows
			r.Post("/generate", apiHandler.GenerateHandler)
			r.Post("/qa", apiHandler.AnswerHandler)

			// Notes
			r.Get("/notes", apiHandler.ListNotesHandler)
			r.Post("/notes", apiHandler.CreateNoteHandler)
			r.Get("/notes/{noteID}", apiHandler.GetNoteHandler)
			r.Put("/notes/{noteID}", apiHandler.UpdateNoteHandler)
			r.Delete("/notes/{noteID}", apiHandler.DeleteNoteHandler)

			// Chat sessions
			r.Get("/chats", apiHandler.ListChatsHandler)
			r.Post("/chats", apiHandler.CreateChatHandler)
			r.Delete("/chats", apiHandler.ClearChatsHandler)
			r.Get("/chats/{chatID}", apiHandler.GetChatHandler)
			r.Post("/chats/{chatID}/messages", apiHandler.PostMessageHandler)
			r.Delete("/chats/{chatID}", apiHandler.DeleteChatHandler)
			r.Post("/chats/save-note", apiHandler.SaveNoteFromChatHandler)

			// Flashcard review session
			r.Route("/review/flashcards", func(r chi.Router) {
				r.Post("/", apiHandler.StartReviewHandler)
				r.Get("/", apiHandler.GetReviewHandler)
				r.Post("/next", apiHandler.NextCardHandler)
				r.Post("/previous", apiHandler.PreviousCardHandler)
				r.Post("/flip", apiHandler.FlipCardHandler)
				r.Post("/cards", apiHandler.AddCardHandler)
				r.Post("/save", apiHandler.SaveReviewHandler)
				r.Post("/exit", apiHandler.ExitReviewHandler)
			})

			// Quiz session
			r.Route("/review/quiz", func(r chi.Router) {
				r.Post("/", apiHandler.StartQuizHandler)
				r.Get("/", apiHandler.GetQuizHandler)
				r.Post("/answer", apiHandler.SelectAnswerHandler)
				r.Post("/submit", apiHandler.SubmitAnswerHandler)
				r.Post("/advance", apiHandler.AdvanceQuizHandler)
				r.Post("/save", apiHandler.SaveQuizHandler)
				r.Post("/exit", apiHandler.ExitQuizHandler)
			})

			// Profile
			r.Get("/profile", apiHandler.GetProfileHandler)
			r.Put("/profile", apiHandler.UpdateProfileHandler)
			r.Post("/profile/avatar", apiHandler.UploadAvatarHandler)
		})
	})

	if avatarDir != "" {
		fs := http.StripPrefix("/static/avatars/", http.FileServer(http.Dir(avatarDir)))
		r.Get("/static/avatars/*", fs.ServeHTTP)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return corsHandler.Handler(r)
}
