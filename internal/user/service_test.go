package user

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
)

type memoryRepo struct {
	users map[primitive.ObjectID]*User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[primitive.ObjectID]*User)}
}

func (m *memoryRepo) add(username string) *User {
	u := &User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Avatar:   DefaultAvatar,
	}
	m.users[u.ID] = u
	return u
}

func (m *memoryRepo) Create(_ context.Context, u *User) (*User, error) {
	u.ID = primitive.NewObjectID()
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id primitive.ObjectID) (*User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, fmt.Errorf("user %w", infrastructure.ErrNotFound)
}

func (m *memoryRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == NormalizeUsername(username) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user %w", infrastructure.ErrNotFound)
}

func (m *memoryRepo) GetByEmailWithPassword(context.Context, string) (*User, error) {
	return nil, infrastructure.ErrNotFound
}

func (m *memoryRepo) GetByIDWithPassword(_ context.Context, id primitive.ObjectID) (*User, error) {
	return m.GetByID(context.Background(), id)
}

func (m *memoryRepo) UpdateFields(context.Context, primitive.ObjectID, bson.M) (*User, error) {
	return nil, nil
}
func (m *memoryRepo) UpdatePassword(context.Context, primitive.ObjectID, string) error { return nil }
func (m *memoryRepo) SetPresence(context.Context, primitive.ObjectID, bool) error      { return nil }

func (m *memoryRepo) Search(_ context.Context, query string, _, _ int) ([]*User, int64, error) {
	var out []*User
	for _, u := range m.users {
		if len(query) <= len(u.Username) && u.Username[:len(query)] == query {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepo) Follow(_ context.Context, follower, target primitive.ObjectID) (bool, error) {
	t, ok := m.users[target]
	if !ok {
		return false, fmt.Errorf("user %w", infrastructure.ErrNotFound)
	}
	if t.IsFollowedBy(follower) {
		return false, nil
	}
	t.Followers = append(t.Followers, follower)
	if f, ok := m.users[follower]; ok {
		f.Following = append(f.Following, target)
	}
	return true, nil
}

func (m *memoryRepo) Unfollow(_ context.Context, follower, target primitive.ObjectID) (bool, error) {
	t, ok := m.users[target]
	if !ok {
		return false, fmt.Errorf("user %w", infrastructure.ErrNotFound)
	}
	changed := false
	kept := t.Followers[:0]
	for _, id := range t.Followers {
		if id == follower {
			changed = true
			continue
		}
		kept = append(kept, id)
	}
	t.Followers = kept
	return changed, nil
}

func (m *memoryRepo) Previews(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Preview, error) {
	out := make(map[primitive.ObjectID]Preview, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u.Preview()
		}
	}
	return out, nil
}

type recordingNotifier struct {
	follows int
}

func (n *recordingNotifier) NotifyFollow(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	n.follows++
	return nil
}

func TestFollowIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	service := NewService(repo, notifier)
	ctx := context.Background()

	alice := repo.add("alice")
	bob := repo.add("bob")

	res, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)
	assert.Equal(t, 1, res.FollowersCount)

	res, err = service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)
	assert.Equal(t, 1, res.FollowersCount, "double follow keeps one entry")
	assert.Equal(t, 1, notifier.follows, "only the first follow notifies")
}

func TestFollowSelfRejected(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, &recordingNotifier{})
	alice := repo.add("alice")

	_, err := service.Follow(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, infrastructure.ErrValidation)

	_, err = service.Unfollow(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, infrastructure.ErrValidation)
}

func TestUnfollow(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, &recordingNotifier{})
	ctx := context.Background()

	alice := repo.add("alice")
	bob := repo.add("bob")

	_, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	res, err := service.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, res.Following)
	assert.Equal(t, 0, res.FollowersCount)
}

func TestGetProfileFollowFlag(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, &recordingNotifier{})
	ctx := context.Background()

	alice := repo.add("alice")
	bob := repo.add("bob")
	_, err := service.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	anon, err := service.GetProfile(ctx, "bob", nil)
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)
	assert.Equal(t, 1, anon.Followers)

	viewed, err := service.GetProfile(ctx, "bob", &alice.ID)
	require.NoError(t, err)
	assert.True(t, viewed.IsFollowing)
}

func TestFollowersPagePreservesOrderAndSkipsDeleted(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, &recordingNotifier{})
	ctx := context.Background()

	target := repo.add("target")
	first := repo.add("first")
	ghost := primitive.NewObjectID() // never stored, simulates a deleted user
	third := repo.add("third")
	target.Followers = []primitive.ObjectID{first.ID, ghost, third.ID}

	previews, total, err := service.Followers(ctx, target.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "total counts the raw array")
	require.Len(t, previews, 2)
	assert.Equal(t, "first", previews[0].Username)
	assert.Equal(t, "third", previews[1].Username)
}

func TestFollowersPagination(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, &recordingNotifier{})
	ctx := context.Background()

	target := repo.add("target")
	for i := 0; i < 5; i++ {
		f := repo.add(fmt.Sprintf("follower%d", i))
		target.Followers = append(target.Followers, f.ID)
	}

	page, total, err := service.Followers(ctx, target.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "follower2", page[0].Username)

	empty, _, err := service.Followers(ctx, target.ID, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearchRequiresQuery(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, &recordingNotifier{})

	_, _, err := service.Search(context.Background(), "", 1, 20)
	assert.ErrorIs(t, err, infrastructure.ErrValidation)
}
