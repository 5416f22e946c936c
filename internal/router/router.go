package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ourbooktalk/booktalk-backend/internal/api/auth"
	"github.com/ourbooktalk/booktalk-backend/internal/api/book"
	"github.com/ourbooktalk/booktalk-backend/internal/api/order"
	"github.com/ourbooktalk/booktalk-backend/internal/api/user"
	"github.com/ourbooktalk/booktalk-backend/internal/api/video"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler  *auth.AuthHandler
	UserHandler  *user.UserHandler
	VideoHandler *video.VideoHandler
	BookHandler  *book.BookHandler
	OrderHandler *order.OrderHandler

	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.TokenHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes: no token required.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)

			r.Get("/users/{userID}", cfg.UserHandler.GetProfile)

			r.Get("/videos", cfg.VideoHandler.List)
			r.Get("/videos/user/{userID}", cfg.VideoHandler.ListByCreator)
			r.Get("/videos/{videoID}", cfg.VideoHandler.Get)
			r.Post("/videos/{videoID}/views", cfg.VideoHandler.RecordView)
			r.Get("/videos/{videoID}/comments", cfg.VideoHandler.ListComments)

			r.Get("/books", cfg.BookHandler.List)
			r.Get("/books/{bookID}", cfg.BookHandler.Get)
			r.Get("/books/{bookID}/reviews", cfg.BookHandler.ListReviews)
		})

		// Protected routes: the gate rejects missing/invalid tokens with 401
		// before any handler runs.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Get("/auth/me", cfg.AuthHandler.Me)

			r.Patch("/users/{userID}", cfg.UserHandler.UpdateProfile)
			r.Post("/users/{userID}/follow", cfg.UserHandler.Follow)
			r.Delete("/users/{userID}/follow", cfg.UserHandler.Unfollow)
			r.Get("/users/me/bookmarks", cfg.UserHandler.ListBookmarks)
			r.Post("/users/me/bookmarks/{videoID}", cfg.UserHandler.AddBookmark)
			r.Delete("/users/me/bookmarks/{videoID}", cfg.UserHandler.RemoveBookmark)
			r.Get("/users/me/tbr", cfg.UserHandler.ListTBR)
			r.Post("/users/me/tbr/{bookID}", cfg.UserHandler.AddTBR)
			r.Delete("/users/me/tbr/{bookID}", cfg.UserHandler.RemoveTBR)

			r.Post("/videos", cfg.VideoHandler.Create)
			r.Put("/videos/{videoID}", cfg.VideoHandler.Update)
			r.Delete("/videos/{videoID}", cfg.VideoHandler.Delete)
			r.Post("/videos/{videoID}/likes", cfg.VideoHandler.Like)
			r.Delete("/videos/{videoID}/likes", cfg.VideoHandler.Unlike)
			r.Post("/videos/{videoID}/comments", cfg.VideoHandler.Comment)

			r.Post("/books", cfg.BookHandler.Create)
			r.Post("/books/{bookID}/reviews", cfg.BookHandler.AddReview)

			r.Get("/orders", cfg.OrderHandler.List)
			r.Post("/orders", cfg.OrderHandler.Create)
			r.Get("/orders/{orderID}", cfg.OrderHandler.Get)
		})
	})

	return r
}
