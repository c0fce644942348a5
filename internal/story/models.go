package story

import (
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
	"torilynq/internal/user"
)

const (
	maxCaptionLength = 200

	// Lifetime mirrors the TTL index; Mongo garbage-collects the documents.
	Lifetime = 24 * time.Hour
)

var imageURLRe = regexp.MustCompile(`^https?://.+`)

type Story struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	AuthorID  primitive.ObjectID   `bson:"author" json:"-"`
	Author    *user.Preview        `bson:"-" json:"author,omitempty"`
	Image     string               `bson:"image" json:"image"`
	Caption   string               `bson:"caption" json:"caption"`
	Viewers   []primitive.ObjectID `bson:"viewers" json:"-"`
	ViewCount int                  `bson:"-" json:"viewCount"`
	ExpiresAt time.Time            `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`

	// ViewedByMe is filled in per viewer.
	ViewedByMe *bool `bson:"-" json:"viewedByMe,omitempty"`
}

func (s *Story) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

func (s *Story) HasViewed(id primitive.ObjectID) bool {
	for _, v := range s.Viewers {
		if v == id {
			return true
		}
	}
	return false
}

func validateStory(image, caption string) error {
	if !imageURLRe.MatchString(image) {
		return fmt.Errorf("%w: story must have a valid image URL", infrastructure.ErrValidation)
	}
	if len(caption) > maxCaptionLength {
		return fmt.Errorf("%w: caption cannot exceed %d characters", infrastructure.ErrValidation, maxCaptionLength)
	}
	return nil
}
