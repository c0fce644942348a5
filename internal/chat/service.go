package chat

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
	"torilynq/internal/user"
)

type Notifier interface {
	NotifyMessage(ctx context.Context, sender, recipient, messageID primitive.ObjectID) error
}

type Service struct {
	repo     Repository
	users    user.Repository
	notifier Notifier
}

func NewService(repo Repository, users user.Repository, notifier Notifier) *Service {
	return &Service{repo: repo, users: users, notifier: notifier}
}

// Start opens (or returns) the direct conversation with another user.
func (s *Service) Start(ctx context.Context, caller *user.User, other primitive.ObjectID) (*Conversation, error) {
	if caller.ID == other {
		return nil, fmt.Errorf("%w: you cannot message yourself", infrastructure.ErrValidation)
	}
	if _, err := s.users.GetByID(ctx, other); err != nil {
		return nil, err
	}

	c, err := s.repo.GetOrCreateDirect(ctx, caller.ID, other)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, []*Conversation{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Conversations(ctx context.Context, caller *user.User, page, limit int) ([]*Conversation, int64, error) {
	conversations, total, err := s.repo.ListForUser(ctx, caller.ID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if err := s.decorate(ctx, conversations); err != nil {
		return nil, 0, err
	}
	return conversations, total, nil
}

func (s *Service) Messages(ctx context.Context, caller *user.User, conversationID primitive.ObjectID, page, limit int) ([]*Message, int64, error) {
	if _, err := s.conversationFor(ctx, caller, conversationID); err != nil {
		return nil, 0, err
	}

	messages, total, err := s.repo.ListMessages(ctx, conversationID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]primitive.ObjectID, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.SenderID)
	}
	previews, err := s.users.Previews(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, m := range messages {
		if p, ok := previews[m.SenderID]; ok {
			preview := p
			m.Sender = &preview
		}
	}
	return messages, total, nil
}

func (s *Service) Send(ctx context.Context, caller *user.User, conversationID primitive.ObjectID, content, media, mediaType string) (*Message, error) {
	if err := validateMessage(content, media, mediaType); err != nil {
		return nil, err
	}

	c, err := s.conversationFor(ctx, caller, conversationID)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.CreateMessage(ctx, &Message{
		ConversationID: conversationID,
		SenderID:       caller.ID,
		Content:        content,
		Media:          media,
		MediaType:      mediaType,
	})
	if err != nil {
		return nil, err
	}

	for _, p := range c.ParticipantID {
		if p == caller.ID {
			continue
		}
		if err := s.notifier.NotifyMessage(ctx, caller.ID, p, m.ID); err != nil {
			slog.Warn("message notification failed", "conversation", conversationID.Hex(), "error", err)
		}
	}

	preview := caller.Preview()
	m.Sender = &preview
	return m, nil
}

// MarkRead marks the counterpart's messages as read, returning the count.
func (s *Service) MarkRead(ctx context.Context, caller *user.User, conversationID primitive.ObjectID) (int64, error) {
	if _, err := s.conversationFor(ctx, caller, conversationID); err != nil {
		return 0, err
	}
	return s.repo.MarkRead(ctx, conversationID, caller.ID)
}

// conversationFor loads the conversation and enforces membership.
func (s *Service) conversationFor(ctx context.Context, caller *user.User, id primitive.ObjectID) (*Conversation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(caller.ID) {
		return nil, fmt.Errorf("%w: you are not part of this conversation", infrastructure.ErrForbidden)
	}
	return c, nil
}

func (s *Service) decorate(ctx context.Context, conversations []*Conversation) error {
	var userIDs []primitive.ObjectID
	var messageIDs []primitive.ObjectID
	for _, c := range conversations {
		userIDs = append(userIDs, c.ParticipantID...)
		if c.LastMessageID != nil {
			messageIDs = append(messageIDs, *c.LastMessageID)
		}
	}

	previews, err := s.users.Previews(ctx, userIDs)
	if err != nil {
		return err
	}
	lastMessages, err := s.repo.GetMessages(ctx, messageIDs)
	if err != nil {
		return err
	}

	for _, c := range conversations {
		for _, id := range c.ParticipantID {
			if p, ok := previews[id]; ok {
				c.Participants = append(c.Participants, p)
			}
		}
		if c.LastMessageID != nil {
			if m, ok := lastMessages[*c.LastMessageID]; ok {
				if p, ok := previews[m.SenderID]; ok {
					preview := p
					m.Sender = &preview
				}
				c.LastMessage = m
			}
		}
	}
	return nil
}
