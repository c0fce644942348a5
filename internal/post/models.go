package post

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
	"torilynq/internal/user"
)

const (
	maxContentLength = 2000
	maxCommentLength = 500
	maxImagesPerPost = 5
)

var (
	hashtagRe  = regexp.MustCompile(`#(\w+)`)
	imageURLRe = regexp.MustCompile(`^https?://.+`)
)

type Post struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	AuthorID      primitive.ObjectID   `bson:"author" json:"-"`
	Author        *user.Preview        `bson:"-" json:"author,omitempty"`
	Content       string               `bson:"content" json:"content"`
	Images        []string             `bson:"images" json:"images"`
	Hashtags      []string             `bson:"hashtags" json:"hashtags"`
	Likes         []primitive.ObjectID `bson:"likes" json:"-"`
	LikesCount    int                  `bson:"likesCount" json:"likesCount"`
	CommentsCount int                  `bson:"commentsCount" json:"commentsCount"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`

	// LikedByMe is filled in for authenticated viewers only.
	LikedByMe *bool `bson:"-" json:"likedByMe,omitempty"`
}

func (p *Post) IsLikedBy(id primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l == id {
			return true
		}
	}
	return false
}

type Comment struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	PostID        primitive.ObjectID   `bson:"post" json:"post"`
	AuthorID      primitive.ObjectID   `bson:"author" json:"-"`
	Author        *user.Preview        `bson:"-" json:"author,omitempty"`
	Content       string               `bson:"content" json:"content"`
	Likes         []primitive.ObjectID `bson:"likes" json:"-"`
	ParentComment *primitive.ObjectID  `bson:"parentComment,omitempty" json:"parentComment,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ExtractHashtags pulls #tags out of post content, lowercased and deduped,
// preserving first-occurrence order.
func ExtractHashtags(content string) []string {
	matches := hashtagRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: post content is required", infrastructure.ErrValidation)
	}
	if len(content) > maxContentLength {
		return fmt.Errorf("%w: post content cannot exceed %d characters", infrastructure.ErrValidation, maxContentLength)
	}
	return nil
}

func validateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: comment content is required", infrastructure.ErrValidation)
	}
	if len(content) > maxCommentLength {
		return fmt.Errorf("%w: comment cannot exceed %d characters", infrastructure.ErrValidation, maxCommentLength)
	}
	return nil
}

func validateImages(images []string) error {
	if len(images) > maxImagesPerPost {
		return fmt.Errorf("%w: a post can carry at most %d images", infrastructure.ErrValidation, maxImagesPerPost)
	}
	for _, img := range images {
		if !imageURLRe.MatchString(img) {
			return fmt.Errorf("%w: invalid image URL", infrastructure.ErrValidation)
		}
	}
	return nil
}
