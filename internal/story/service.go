package story

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
	"torilynq/internal/user"
)

type Notifier interface {
	NotifyStoryView(ctx context.Context, sender, recipient, storyID primitive.ObjectID) error
}

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

func (s *Service) Create(ctx context.Context, author *user.User, image, caption string) (*Story, error) {
	if err := validateStory(image, caption); err != nil {
		return nil, err
	}

	st, err := s.repo.Create(ctx, &Story{
		AuthorID: author.ID,
		Image:    image,
		Caption:  caption,
	})
	if err != nil {
		return nil, err
	}

	preview := author.Preview()
	st.Author = &preview
	return st, nil
}

// AuthorStories groups a feed by author, oldest story first within a group.
type AuthorStories struct {
	Author  user.Preview `json:"author"`
	Stories []*Story     `json:"stories"`
}

// Feed returns unexpired stories from followed users plus the caller's own.
func (s *Service) Feed(ctx context.Context, viewer *user.User) ([]AuthorStories, error) {
	authors := append([]primitive.ObjectID{viewer.ID}, viewer.Following...)

	stories, err := s.repo.ListByAuthors(ctx, authors)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(stories))
	for _, st := range stories {
		ids = append(ids, st.AuthorID)
	}
	previews, err := s.users.Previews(ctx, ids)
	if err != nil {
		return nil, err
	}

	grouped := make(map[primitive.ObjectID]*AuthorStories)
	var order []primitive.ObjectID
	for _, st := range stories {
		s.present(st, viewer.ID)

		g, ok := grouped[st.AuthorID]
		if !ok {
			preview, found := previews[st.AuthorID]
			if !found {
				continue
			}
			g = &AuthorStories{Author: preview}
			grouped[st.AuthorID] = g
			order = append(order, st.AuthorID)
		}
		g.Stories = append(g.Stories, st)
	}

	feed := make([]AuthorStories, 0, len(order))
	for _, id := range order {
		feed = append(feed, *grouped[id])
	}
	return feed, nil
}

func (s *Service) Get(ctx context.Context, viewer *user.User, id primitive.ObjectID) (*Story, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previews, err := s.users.Previews(ctx, []primitive.ObjectID{st.AuthorID})
	if err != nil {
		return nil, err
	}
	if p, ok := previews[st.AuthorID]; ok {
		preview := p
		st.Author = &preview
	}
	s.present(st, viewer.ID)
	return st, nil
}

// View records the viewer on the story; first views notify the author.
func (s *Service) View(ctx context.Context, viewer *user.User, id primitive.ObjectID) (*Story, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if st.AuthorID != viewer.ID {
		newly, err := s.repo.AddViewer(ctx, id, viewer.ID)
		if err != nil {
			return nil, err
		}
		if newly {
			if err := s.notifier.NotifyStoryView(ctx, viewer.ID, st.AuthorID, st.ID); err != nil {
				slog.Warn("story view notification failed", "story", st.ID.Hex(), "error", err)
			}
			st.Viewers = append(st.Viewers, viewer.ID)
		}
	}

	s.present(st, viewer.ID)
	return st, nil
}

func (s *Service) Delete(ctx context.Context, caller *user.User, id primitive.ObjectID) error {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if st.AuthorID != caller.ID {
		return fmt.Errorf("%w: not authorized to delete this story", infrastructure.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.media.DeleteAsync(st.Image)
	return nil
}

func (s *Service) present(st *Story, viewer primitive.ObjectID) {
	st.ViewCount = len(st.Viewers)
	viewed := st.HasViewed(viewer)
	st.ViewedByMe = &viewed
}
