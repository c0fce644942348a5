package notifications

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/internal/user"
)

// Service records notifications and serves the recipient's inbox. Its
// Notify* methods satisfy the Notifier interfaces the domain packages
// declare for themselves.
type Service struct {
	repo  Repository
	users user.Repository
}

func NewService(repo Repository, users user.Repository) *Service {
	return &Service{repo: repo, users: users}
}

func (s *Service) NotifyFollow(ctx context.Context, sender, recipient primitive.ObjectID) error {
	return s.repo.Create(ctx, &Notification{
		RecipientID: recipient,
		SenderID:    sender,
		Type:        TypeFollow,
	})
}

func (s *Service) NotifyLike(ctx context.Context, sender, recipient, postID primitive.ObjectID) error {
	return s.repo.Create(ctx, &Notification{
		RecipientID: recipient,
		SenderID:    sender,
		Type:        TypeLike,
		PostID:      &postID,
	})
}

func (s *Service) NotifyComment(ctx context.Context, sender, recipient, postID, commentID primitive.ObjectID) error {
	return s.repo.Create(ctx, &Notification{
		RecipientID: recipient,
		SenderID:    sender,
		Type:        TypeComment,
		PostID:      &postID,
		CommentID:   &commentID,
	})
}

func (s *Service) NotifyMessage(ctx context.Context, sender, recipient, messageID primitive.ObjectID) error {
	return s.repo.Create(ctx, &Notification{
		RecipientID: recipient,
		SenderID:    sender,
		Type:        TypeMessage,
		MessageID:   &messageID,
	})
}

func (s *Service) NotifyStoryView(ctx context.Context, sender, recipient, storyID primitive.ObjectID) error {
	return s.repo.Create(ctx, &Notification{
		RecipientID: recipient,
		SenderID:    sender,
		Type:        TypeStoryView,
		StoryID:     &storyID,
	})
}

func (s *Service) List(ctx context.Context, recipient primitive.ObjectID, unreadOnly bool, page, limit int) ([]*Notification, int64, error) {
	list, total, err := s.repo.ListForRecipient(ctx, recipient, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]primitive.ObjectID, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.SenderID)
	}
	previews, err := s.users.Previews(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, n := range list {
		if p, ok := previews[n.SenderID]; ok {
			preview := p
			n.Sender = &preview
		}
		n.Message = n.RenderMessage()
	}
	return list, total, nil
}

func (s *Service) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.repo.UnreadCount(ctx, recipient)
}

func (s *Service) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) error {
	return s.repo.MarkRead(ctx, id, recipient)
}

func (s *Service) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipient)
}
