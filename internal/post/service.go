package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
	"torilynq/internal/user"
)

// Notifier fans like/comment events out to the post author. Best-effort.
type Notifier interface {
	NotifyLike(ctx context.Context, sender, recipient, postID primitive.ObjectID) error
	NotifyComment(ctx context.Context, sender, recipient, postID, commentID primitive.ObjectID) error
}

// MediaDeleter removes uploaded images once their owning entity is gone.
// Deletion is asynchronous and best-effort; orphaned media is acceptable,
// a failed post delete is not.
type MediaDeleter interface {
	DeleteAsync(url string)
}

type Service struct {
	repo     Repository
	users    user.Repository
	notifier Notifier
	media    MediaDeleter
}

func NewService(repo Repository, users user.Repository, notifier Notifier, media MediaDeleter) *Service {
	return &Service{repo: repo, users: users, notifier: notifier, media: media}
}

func (s *Service) CreatePost(ctx context.Context, author *user.User, content string, images []string) (*Post, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if err := validateImages(images); err != nil {
		return nil, err
	}

	p, err := s.repo.CreatePost(ctx, &Post{
		AuthorID: author.ID,
		Content:  content,
		Images:   images,
		Hashtags: ExtractHashtags(content),
	})
	if err != nil {
		return nil, err
	}

	preview := author.Preview()
	p.Author = &preview
	return p, nil
}

// Feed returns posts from followed users plus the caller's own, newest first.
func (s *Service) Feed(ctx context.Context, viewer *user.User, page, limit int) ([]*Post, int64, error) {
	authors := append([]primitive.ObjectID{viewer.ID}, viewer.Following...)

	posts, total, err := s.repo.ListByAuthors(ctx, authors, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if err := s.decorate(ctx, posts, &viewer.ID); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *Service) GetPost(ctx context.Context, id primitive.ObjectID, viewer *primitive.ObjectID) (*Post, error) {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, []*Post{p}, viewer); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeletePost(ctx context.Context, caller *user.User, id primitive.ObjectID) error {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if p.AuthorID != caller.ID {
		return fmt.Errorf("%w: not authorized to delete this post", infrastructure.ErrForbidden)
	}

	// Comments go first so a crash in between leaves no orphans pointing at
	// a live post.
	if err := s.repo.DeleteCommentsForPost(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return err
	}

	for _, img := range p.Images {
		s.media.DeleteAsync(img)
	}
	return nil
}

// LikeResult reports the state after a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

func (s *Service) ToggleLike(ctx context.Context, caller *user.User, postID primitive.ObjectID) (*LikeResult, error) {
	p, err := s.repo.ToggleLike(ctx, postID, caller.ID)
	if err != nil {
		return nil, err
	}

	liked := p.IsLikedBy(caller.ID)
	if liked && p.AuthorID != caller.ID {
		if err := s.notifier.NotifyLike(ctx, caller.ID, p.AuthorID, p.ID); err != nil {
			slog.Warn("like notification failed", "post", p.ID.Hex(), "error", err)
		}
	}
	return &LikeResult{Liked: liked, LikesCount: p.LikesCount}, nil
}

func (s *Service) AddComment(ctx context.Context, caller *user.User, postID primitive.ObjectID, content string, parent *primitive.ObjectID) (*Comment, error) {
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}

	p, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.CreateComment(ctx, &Comment{
		PostID:        postID,
		AuthorID:      caller.ID,
		Content:       content,
		ParentComment: parent,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncCommentsCount(ctx, postID, 1); err != nil {
		return nil, err
	}

	if p.AuthorID != caller.ID {
		if err := s.notifier.NotifyComment(ctx, caller.ID, p.AuthorID, postID, c.ID); err != nil {
			slog.Warn("comment notification failed", "post", postID.Hex(), "error", err)
		}
	}

	preview := caller.Preview()
	c.Author = &preview
	return c, nil
}

func (s *Service) Comments(ctx context.Context, postID primitive.ObjectID, page, limit int) ([]*Comment, int64, error) {
	comments, total, err := s.repo.ListComments(ctx, postID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	previews, err := s.users.Previews(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, c := range comments {
		if p, ok := previews[c.AuthorID]; ok {
			preview := p
			c.Author = &preview
		}
	}
	return comments, total, nil
}

func (s *Service) PostsByHashtag(ctx context.Context, tag string, page, limit int, viewer *primitive.ObjectID) ([]*Post, int64, error) {
	posts, total, err := s.repo.ListByHashtag(ctx, strings.ToLower(tag), page, limit)
	if err != nil {
		return nil, 0, err
	}
	if err := s.decorate(ctx, posts, viewer); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *Service) PostsByUsername(ctx context.Context, username string, page, limit int, viewer *primitive.ObjectID) ([]*Post, int64, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}

	posts, total, err := s.repo.ListByAuthors(ctx, []primitive.ObjectID{u.ID}, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if err := s.decorate(ctx, posts, viewer); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// decorate attaches author previews and, for authenticated viewers, the
// liked-by-me flag.
func (s *Service) decorate(ctx context.Context, posts []*Post, viewer *primitive.ObjectID) error {
	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}

	previews, err := s.users.Previews(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if pr, ok := previews[p.AuthorID]; ok {
			preview := pr
			p.Author = &preview
		}
		if viewer != nil {
			liked := p.IsLikedBy(*viewer)
			p.LikedByMe = &liked
		}
	}
	return nil
}
