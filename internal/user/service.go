package user

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
)

// Notifier fans a follow event out to the recipient. Failures are
// best-effort and never surface to the follower.
type Notifier interface {
	NotifyFollow(ctx context.Context, sender, recipient primitive.ObjectID) error
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Profile is a public profile plus the viewer-dependent follow flag.
type Profile struct {
	PublicProfile
	IsFollowing bool `json:"isFollowing"`
}

// GetProfile resolves a profile by username. viewer is nil for anonymous
// callers; authenticated viewers get an isFollowing flag.
func (s *Service) GetProfile(ctx context.Context, username string, viewer *primitive.ObjectID) (*Profile, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	p := &Profile{PublicProfile: u.PublicProfile()}
	if viewer != nil {
		p.IsFollowing = u.IsFollowedBy(*viewer)
	}
	return p, nil
}

func (s *Service) Search(ctx context.Context, query string, page, limit int) ([]PublicProfile, int64, error) {
	if query == "" {
		return nil, 0, fmt.Errorf("%w: search query is required", infrastructure.ErrValidation)
	}

	users, total, err := s.repo.Search(ctx, query, page, limit)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]PublicProfile, len(users))
	for i, u := range users {
		profiles[i] = u.PublicProfile()
	}
	return profiles, total, nil
}

// FollowResult reports the relationship state after a follow or unfollow.
type FollowResult struct {
	Following      bool `json:"following"`
	FollowersCount int  `json:"followersCount"`
}

func (s *Service) Follow(ctx context.Context, follower, target primitive.ObjectID) (*FollowResult, error) {
	if follower == target {
		return nil, fmt.Errorf("%w: you cannot follow yourself", infrastructure.ErrValidation)
	}

	changed, err := s.repo.Follow(ctx, follower, target)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.notifier.NotifyFollow(ctx, follower, target); err != nil {
			slog.Warn("follow notification failed", "error", err)
		}
	}

	u, err := s.repo.GetByID(ctx, target)
	if err != nil {
		return nil, err
	}
	return &FollowResult{Following: true, FollowersCount: len(u.Followers)}, nil
}

func (s *Service) Unfollow(ctx context.Context, follower, target primitive.ObjectID) (*FollowResult, error) {
	if follower == target {
		return nil, fmt.Errorf("%w: you cannot unfollow yourself", infrastructure.ErrValidation)
	}

	if _, err := s.repo.Unfollow(ctx, follower, target); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, target)
	if err != nil {
		return nil, err
	}
	return &FollowResult{Following: false, FollowersCount: len(u.Followers)}, nil
}

func (s *Service) Followers(ctx context.Context, id primitive.ObjectID, page, limit int) ([]Preview, int64, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return s.previewPage(ctx, u.Followers, page, limit)
}

func (s *Service) Following(ctx context.Context, id primitive.ObjectID, page, limit int) ([]Preview, int64, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return s.previewPage(ctx, u.Following, page, limit)
}

func (s *Service) previewPage(ctx context.Context, ids []primitive.ObjectID, page, limit int) ([]Preview, int64, error) {
	total := int64(len(ids))

	start := (page - 1) * limit
	if start >= len(ids) {
		return []Preview{}, total, nil
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}
	pageIDs := ids[start:end]

	previews, err := s.repo.Previews(ctx, pageIDs)
	if err != nil {
		return nil, 0, err
	}

	// Preserve array order; drop references to since-deleted users.
	out := make([]Preview, 0, len(pageIDs))
	for _, id := range pageIDs {
		if p, ok := previews[id]; ok {
			out = append(out, p)
		}
	}
	return out, total, nil
}
