package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"torilynq/internal/auth"
	"torilynq/internal/chat"
	"torilynq/internal/media"
	"torilynq/internal/notifications"
	"torilynq/internal/post"
	"torilynq/internal/story"
	"torilynq/internal/user"
)

// Handlers bundles the per-domain REST handlers the server routes to.
type Handlers struct {
	Auth          *auth.Handler
	Users         *user.Handler
	Posts         *post.Handler
	Stories       *story.Handler
	Chat          *chat.Handler
	Notifications *notifications.Handler
	Media         *media.Handler
}

type Server struct {
	router *mux.Router
	http   *http.Server
}

func NewServer(addr string, middleware *auth.Middleware, handlers Handlers) *Server {
	router := mux.NewRouter()
	router.Use(Logger)
	router.Use(RateLimitMiddleware(100))

	s := &Server{
		router: router,
		http: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
	s.setupRoutes(middleware, handlers)
	return s
}

func (s *Server) setupRoutes(mw *auth.Middleware, h Handlers) {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet)

	// Auth. Register and login are the only unauthenticated writes.
	api.HandleFunc("/auth/register", h.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost)
	api.Handle("/auth/logout", mw.Require(http.HandlerFunc(h.Auth.Logout))).Methods(http.MethodPost)
	api.Handle("/auth/me", mw.Require(http.HandlerFunc(h.Auth.Me))).Methods(http.MethodGet)
	api.Handle("/auth/update", mw.Require(http.HandlerFunc(h.Auth.UpdateProfile))).Methods(http.MethodPut)
	api.Handle("/auth/update-password", mw.Require(http.HandlerFunc(h.Auth.UpdatePassword))).Methods(http.MethodPut)

	// Users. Public reads carry optional identity so profiles can report
	// isFollowing for a signed-in viewer.
	api.HandleFunc("/users/search", h.Users.Search).Methods(http.MethodGet)
	api.Handle("/users/{username}", mw.Optional(http.HandlerFunc(h.Users.GetProfile))).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/followers", h.Users.Followers).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/following", h.Users.Following).Methods(http.MethodGet)
	api.Handle("/users/{userId}/follow", mw.Require(http.HandlerFunc(h.Users.Follow))).Methods(http.MethodPost)
	api.Handle("/users/{userId}/follow", mw.Require(http.HandlerFunc(h.Users.Unfollow))).Methods(http.MethodDelete)

	// Posts.
	api.Handle("/posts", mw.Require(http.HandlerFunc(h.Posts.Create))).Methods(http.MethodPost)
	api.Handle("/posts/feed", mw.Require(http.HandlerFunc(h.Posts.Feed))).Methods(http.MethodGet)
	api.Handle("/posts/hashtag/{tag}", mw.Optional(http.HandlerFunc(h.Posts.ByHashtag))).Methods(http.MethodGet)
	api.Handle("/posts/user/{username}", mw.Optional(http.HandlerFunc(h.Posts.ByUser))).Methods(http.MethodGet)
	api.Handle("/posts/{postId}", mw.Optional(http.HandlerFunc(h.Posts.Get))).Methods(http.MethodGet)
	api.Handle("/posts/{postId}", mw.Require(http.HandlerFunc(h.Posts.Delete))).Methods(http.MethodDelete)
	api.Handle("/posts/{postId}/like", mw.Require(http.HandlerFunc(h.Posts.ToggleLike))).Methods(http.MethodPost)
	api.Handle("/posts/{postId}/comments", mw.Optional(http.HandlerFunc(h.Posts.Comments))).Methods(http.MethodGet)
	api.Handle("/posts/{postId}/comments", mw.Require(http.HandlerFunc(h.Posts.AddComment))).Methods(http.MethodPost)

	// Stories.
	api.Handle("/stories", mw.Require(http.HandlerFunc(h.Stories.Create))).Methods(http.MethodPost)
	api.Handle("/stories/feed", mw.Require(http.HandlerFunc(h.Stories.Feed))).Methods(http.MethodGet)
	api.Handle("/stories/{storyId}", mw.Require(http.HandlerFunc(h.Stories.Get))).Methods(http.MethodGet)
	api.Handle("/stories/{storyId}", mw.Require(http.HandlerFunc(h.Stories.Delete))).Methods(http.MethodDelete)
	api.Handle("/stories/{storyId}/view", mw.Require(http.HandlerFunc(h.Stories.View))).Methods(http.MethodPost)

	// Chat.
	api.Handle("/conversations", mw.Require(http.HandlerFunc(h.Chat.List))).Methods(http.MethodGet)
	api.Handle("/conversations", mw.Require(http.HandlerFunc(h.Chat.Start))).Methods(http.MethodPost)
	api.Handle("/conversations/{conversationId}/messages", mw.Require(http.HandlerFunc(h.Chat.Messages))).Methods(http.MethodGet)
	api.Handle("/conversations/{conversationId}/messages", mw.Require(http.HandlerFunc(h.Chat.Send))).Methods(http.MethodPost)
	api.Handle("/conversations/{conversationId}/read", mw.Require(http.HandlerFunc(h.Chat.MarkRead))).Methods(http.MethodPut)

	// Notifications.
	api.Handle("/notifications", mw.Require(http.HandlerFunc(h.Notifications.List))).Methods(http.MethodGet)
	api.Handle("/notifications/unread-count", mw.Require(http.HandlerFunc(h.Notifications.UnreadCount))).Methods(http.MethodGet)
	api.Handle("/notifications/read-all", mw.Require(http.HandlerFunc(h.Notifications.MarkAllRead))).Methods(http.MethodPut)
	api.Handle("/notifications/{id}/read", mw.Require(http.HandlerFunc(h.Notifications.MarkRead))).Methods(http.MethodPut)

	// Media. Optional: some deployments run without object storage.
	if h.Media != nil {
		api.Handle("/media/upload", mw.Require(http.HandlerFunc(h.Media.Upload))).Methods(http.MethodPost)
	}
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
