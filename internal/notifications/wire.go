package notifications

import (
	"github.com/google/wire"

	"torilynq/internal/chat"
	"torilynq/internal/post"
	"torilynq/internal/story"
	"torilynq/internal/user"
)

// The consumer packages each declare the notifier surface they need;
// *Service satisfies all of them.
func ProvideUserNotifier(s *Service) user.Notifier   { return s }
func ProvidePostNotifier(s *Service) post.Notifier   { return s }
func ProvideStoryNotifier(s *Service) story.Notifier { return s }
func ProvideChatNotifier(s *Service) chat.Notifier   { return s }

var Set = wire.NewSet(
	NewRepository,
	NewService,
	NewHandler,
	ProvideUserNotifier,
	ProvidePostNotifier,
	ProvideStoryNotifier,
	ProvideChatNotifier,
)
