package api

import (
	"github.com/google/wire"

	"torilynq/config"
	"torilynq/internal/auth"
	"torilynq/internal/chat"
	"torilynq/internal/media"
	"torilynq/internal/notifications"
	"torilynq/internal/post"
	"torilynq/internal/story"
	"torilynq/internal/user"
)

func ProvideHandlers(
	authHandler *auth.Handler,
	userHandler *user.Handler,
	postHandler *post.Handler,
	storyHandler *story.Handler,
	chatHandler *chat.Handler,
	notificationHandler *notifications.Handler,
	mediaHandler *media.Handler,
) Handlers {
	return Handlers{
		Auth:          authHandler,
		Users:         userHandler,
		Posts:         postHandler,
		Stories:       storyHandler,
		Chat:          chatHandler,
		Notifications: notificationHandler,
		Media:         mediaHandler,
	}
}

func ProvideServer(cfg *config.Config, middleware *auth.Middleware, handlers Handlers) *Server {
	return NewServer(":"+cfg.Port, middleware, handlers)
}

var Set = wire.NewSet(ProvideHandlers, ProvideServer)
