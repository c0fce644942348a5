package chat

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
	"torilynq/internal/user"
)

const maxMessageLength = 2000

type Conversation struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	ParticipantID []primitive.ObjectID `bson:"participants" json:"-"`
	Participants  []user.Preview       `bson:"-" json:"participants,omitempty"`
	LastMessageID *primitive.ObjectID  `bson:"lastMessage,omitempty" json:"-"`
	LastMessage   *Message             `bson:"-" json:"lastMessage,omitempty"`
	IsGroup       bool                 `bson:"isGroup" json:"isGroup"`
	GroupName     string               `bson:"groupName,omitempty" json:"groupName,omitempty"`
	GroupAvatar   string               `bson:"groupAvatar,omitempty" json:"groupAvatar,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (c *Conversation) HasParticipant(id primitive.ObjectID) bool {
	for _, p := range c.ParticipantID {
		if p == id {
			return true
		}
	}
	return false
}

type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ConversationID primitive.ObjectID `bson:"conversation" json:"conversation"`
	SenderID       primitive.ObjectID `bson:"sender" json:"-"`
	Sender         *user.Preview      `bson:"-" json:"sender,omitempty"`
	Content        string             `bson:"content,omitempty" json:"content,omitempty"`
	Media          string             `bson:"media,omitempty" json:"media,omitempty"`
	MediaType      string             `bson:"mediaType,omitempty" json:"mediaType,omitempty"`
	IsRead         bool               `bson:"isRead" json:"isRead"`
	ReadAt         *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

var mediaTypes = map[string]struct{}{
	"image": {},
	"video": {},
	"audio": {},
	"file":  {},
}

func validateMessage(content, media, mediaType string) error {
	if strings.TrimSpace(content) == "" && media == "" {
		return fmt.Errorf("%w: message must have either content or media", infrastructure.ErrValidation)
	}
	if len(content) > maxMessageLength {
		return fmt.Errorf("%w: message cannot exceed %d characters", infrastructure.ErrValidation, maxMessageLength)
	}
	if media != "" {
		if _, ok := mediaTypes[mediaType]; !ok {
			return fmt.Errorf("%w: mediaType must be one of image, video, audio, file", infrastructure.ErrValidation)
		}
	}
	return nil
}
