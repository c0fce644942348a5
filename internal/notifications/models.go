package notifications

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/internal/user"
)

const (
	TypeFollow    = "follow"
	TypeLike      = "like"
	TypeComment   = "comment"
	TypeMessage   = "message"
	TypeMention   = "mention"
	TypeStoryView = "story_view"
)

type Notification struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	RecipientID primitive.ObjectID  `bson:"recipient" json:"-"`
	SenderID    primitive.ObjectID  `bson:"sender" json:"-"`
	Sender      *user.Preview       `bson:"-" json:"sender,omitempty"`
	Type        string              `bson:"type" json:"type"`
	PostID      *primitive.ObjectID `bson:"post,omitempty" json:"post,omitempty"`
	CommentID   *primitive.ObjectID `bson:"comment,omitempty" json:"comment,omitempty"`
	StoryID     *primitive.ObjectID `bson:"story,omitempty" json:"story,omitempty"`
	MessageID   *primitive.ObjectID `bson:"message,omitempty" json:"message,omitempty"`
	IsRead      bool                `bson:"isRead" json:"isRead"`
	ReadAt      *time.Time          `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`

	// Message is the human-readable rendering of Type.
	Message string `bson:"-" json:"message"`
}

var typeMessages = map[string]string{
	TypeFollow:    "started following you",
	TypeLike:      "liked your post",
	TypeComment:   "commented on your post",
	TypeMessage:   "sent you a message",
	TypeMention:   "mentioned you in a post",
	TypeStoryView: "viewed your story",
}

func (n *Notification) RenderMessage() string {
	if msg, ok := typeMessages[n.Type]; ok {
		return msg
	}
	return "interacted with your content"
}
