package story

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
	"torilynq/internal/user"
)

type fakeRepo struct {
	stories map[primitive.ObjectID]*Story
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stories: make(map[primitive.ObjectID]*Story)}
}

func (f *fakeRepo) Create(_ context.Context, s *Story) (*Story, error) {
	now := time.Now().UTC()
	s.ID = primitive.NewObjectID()
	s.CreatedAt = now
	s.ExpiresAt = now.Add(Lifetime)
	s.Viewers = []primitive.ObjectID{}
	stored := *s
	f.stories[s.ID] = &stored
	return s, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id primitive.ObjectID) (*Story, error) {
	s, ok := f.stories[id]
	if !ok || s.IsExpired() {
		return nil, fmt.Errorf("story %w", infrastructure.ErrNotFound)
	}
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(f.stories, id)
	return nil
}

func (f *fakeRepo) ListByAuthors(_ context.Context, authors []primitive.ObjectID) ([]*Story, error) {
	var out []*Story
	for _, s := range f.stories {
		if s.IsExpired() {
			continue
		}
		for _, a := range authors {
			if s.AuthorID == a {
				copied := *s
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) AddViewer(_ context.Context, storyID, viewerID primitive.ObjectID) (bool, error) {
	s, ok := f.stories[storyID]
	if !ok {
		return false, fmt.Errorf("story %w", infrastructure.ErrNotFound)
	}
	if s.HasViewed(viewerID) {
		return false, nil
	}
	s.Viewers = append(s.Viewers, viewerID)
	return true, nil
}

type stubUsers struct {
	previews map[primitive.ObjectID]user.Preview
}

func (s *stubUsers) Create(context.Context, *user.User) (*user.User, error) { return nil, nil }
func (s *stubUsers) GetByID(context.Context, primitive.ObjectID) (*user.User, error) {
	return nil, infrastructure.ErrNotFound
}
func (s *stubUsers) GetByUsername(context.Context, string) (*user.User, error) {
	return nil, infrastructure.ErrNotFound
}
func (s *stubUsers) GetByEmailWithPassword(context.Context, string) (*user.User, error) {
	return nil, infrastructure.ErrNotFound
}
func (s *stubUsers) GetByIDWithPassword(context.Context, primitive.ObjectID) (*user.User, error) {
	return nil, infrastructure.ErrNotFound
}
func (s *stubUsers) UpdateFields(context.Context, primitive.ObjectID, bson.M) (*user.User, error) {
	return nil, nil
}
func (s *stubUsers) UpdatePassword(context.Context, primitive.ObjectID, string) error { return nil }
func (s *stubUsers) SetPresence(context.Context, primitive.ObjectID, bool) error      { return nil }
func (s *stubUsers) Search(context.Context, string, int, int) ([]*user.User, int64, error) {
	return nil, 0, nil
}
func (s *stubUsers) Follow(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	return false, nil
}
func (s *stubUsers) Unfollow(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	return false, nil
}
func (s *stubUsers) Previews(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]user.Preview, error) {
	out := make(map[primitive.ObjectID]user.Preview, len(ids))
	for _, id := range ids {
		if p, ok := s.previews[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeNotifier struct {
	views int
}

func (n *fakeNotifier) NotifyStoryView(context.Context, primitive.ObjectID, primitive.ObjectID, primitive.ObjectID) error {
	n.views++
	return nil
}

type fakeDeleter struct {
	deleted []string
}

func (d *fakeDeleter) DeleteAsync(url string) { d.deleted = append(d.deleted, url) }

func newTestStoryService() (*Service, *fakeRepo, *stubUsers, *fakeNotifier, *fakeDeleter) {
	repo := newFakeRepo()
	users := &stubUsers{previews: make(map[primitive.ObjectID]user.Preview)}
	notifier := &fakeNotifier{}
	deleter := &fakeDeleter{}
	return NewService(repo, users, notifier, deleter), repo, users, notifier, deleter
}

func testUser(users *stubUsers, username string) *user.User {
	u := &user.User{ID: primitive.NewObjectID(), Username: username, Avatar: user.DefaultAvatar}
	users.previews[u.ID] = u.Preview()
	return u
}

func TestCreateStoryValidation(t *testing.T) {
	service, _, users, _, _ := newTestStoryService()
	author := testUser(users, "alice")
	ctx := context.Background()

	_, err := service.Create(ctx, author, "", "caption")
	assert.ErrorIs(t, err, infrastructure.ErrValidation)

	st, err := service.Create(ctx, author, "https://cdn.example.com/s.jpg", "hello")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(Lifetime), st.ExpiresAt, time.Minute)
}

func TestViewNotifiesOnFirstViewOnly(t *testing.T) {
	service, _, users, notifier, _ := newTestStoryService()
	author := testUser(users, "alice")
	viewer := testUser(users, "bob")
	ctx := context.Background()

	st, err := service.Create(ctx, author, "https://cdn.example.com/s.jpg", "")
	require.NoError(t, err)

	viewed, err := service.View(ctx, viewer, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.ViewCount)
	require.NotNil(t, viewed.ViewedByMe)
	assert.True(t, *viewed.ViewedByMe)
	assert.Equal(t, 1, notifier.views)

	_, err = service.View(ctx, viewer, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.views, "repeat views must not re-notify")
}

func TestViewOwnStoryDoesNotCount(t *testing.T) {
	service, _, users, notifier, _ := newTestStoryService()
	author := testUser(users, "alice")
	ctx := context.Background()

	st, err := service.Create(ctx, author, "https://cdn.example.com/s.jpg", "")
	require.NoError(t, err)

	viewed, err := service.View(ctx, author, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, viewed.ViewCount)
	assert.Equal(t, 0, notifier.views)
}

func TestDeleteStoryRequiresOwnership(t *testing.T) {
	service, repo, users, _, deleter := newTestStoryService()
	author := testUser(users, "alice")
	stranger := testUser(users, "bob")
	ctx := context.Background()

	st, err := service.Create(ctx, author, "https://cdn.example.com/s.jpg", "")
	require.NoError(t, err)

	err = service.Delete(ctx, stranger, st.ID)
	assert.ErrorIs(t, err, infrastructure.ErrForbidden)

	require.NoError(t, service.Delete(ctx, author, st.ID))
	_, err = repo.GetByID(ctx, st.ID)
	assert.ErrorIs(t, err, infrastructure.ErrNotFound)
	assert.Equal(t, []string{"https://cdn.example.com/s.jpg"}, deleter.deleted)
}

func TestFeedGroupsByAuthor(t *testing.T) {
	service, _, users, _, _ := newTestStoryService()
	alice := testUser(users, "alice")
	bob := testUser(users, "bob")
	viewer := testUser(users, "carol")
	viewer.Following = []primitive.ObjectID{alice.ID, bob.ID}
	ctx := context.Background()

	_, err := service.Create(ctx, alice, "https://cdn.example.com/1.jpg", "")
	require.NoError(t, err)
	_, err = service.Create(ctx, alice, "https://cdn.example.com/2.jpg", "")
	require.NoError(t, err)
	_, err = service.Create(ctx, bob, "https://cdn.example.com/3.jpg", "")
	require.NoError(t, err)

	feed, err := service.Feed(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	byAuthor := make(map[string]int)
	for _, g := range feed {
		byAuthor[g.Author.Username] = len(g.Stories)
	}
	assert.Equal(t, 2, byAuthor["alice"])
	assert.Equal(t, 1, byAuthor["bob"])
}

func TestExpiredStoryInvisible(t *testing.T) {
	service, repo, users, _, _ := newTestStoryService()
	author := testUser(users, "alice")
	ctx := context.Background()

	st, err := service.Create(ctx, author, "https://cdn.example.com/s.jpg", "")
	require.NoError(t, err)
	repo.stories[st.ID].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = service.Get(ctx, author, st.ID)
	assert.ErrorIs(t, err, infrastructure.ErrNotFound)
}
