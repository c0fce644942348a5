package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
	"torilynq/internal/user"
)

type fakeRepo struct {
	created []*Notification
}

func (f *fakeRepo) Create(_ context.Context, n *Notification) error {
	n.ID = primitive.NewObjectID()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeRepo) ListForRecipient(_ context.Context, recipient primitive.ObjectID, unreadOnly bool, _, _ int) ([]*Notification, int64, error) {
	var out []*Notification
	for _, n := range f.created {
		if n.RecipientID != recipient {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		copied := *n
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) UnreadCount(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	var count int64
	for _, n := range f.created {
		if n.RecipientID == recipient && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) MarkRead(_ context.Context, id, recipient primitive.ObjectID) error {
	for _, n := range f.created {
		if n.ID == id && n.RecipientID == recipient {
			n.IsRead = true
			return nil
		}
	}
	return infrastructure.ErrNotFound
}

func (f *fakeRepo) MarkAllRead(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	var count int64
	for _, n := range f.created {
		if n.RecipientID == recipient && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
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

func newTestNotificationsService() (*Service, *fakeRepo, *stubUsers) {
	repo := &fakeRepo{}
	users := &stubUsers{previews: make(map[primitive.ObjectID]user.Preview)}
	return NewService(repo, users), repo, users
}

func TestNotifyFanOutTypes(t *testing.T) {
	service, repo, _ := newTestNotificationsService()
	ctx := context.Background()
	sender := primitive.NewObjectID()
	recipient := primitive.NewObjectID()
	ref := primitive.NewObjectID()

	require.NoError(t, service.NotifyFollow(ctx, sender, recipient))
	require.NoError(t, service.NotifyLike(ctx, sender, recipient, ref))
	require.NoError(t, service.NotifyComment(ctx, sender, recipient, ref, primitive.NewObjectID()))
	require.NoError(t, service.NotifyMessage(ctx, sender, recipient, ref))
	require.NoError(t, service.NotifyStoryView(ctx, sender, recipient, ref))

	require.Len(t, repo.created, 5)
	assert.Equal(t, TypeFollow, repo.created[0].Type)
	assert.Equal(t, TypeLike, repo.created[1].Type)
	require.NotNil(t, repo.created[1].PostID)
	assert.Equal(t, ref, *repo.created[1].PostID)
	assert.Equal(t, TypeComment, repo.created[2].Type)
	require.NotNil(t, repo.created[2].CommentID)
	assert.Equal(t, TypeMessage, repo.created[3].Type)
	assert.Equal(t, TypeStoryView, repo.created[4].Type)
	for _, n := range repo.created {
		assert.Equal(t, recipient, n.RecipientID)
		assert.Equal(t, sender, n.SenderID)
		assert.False(t, n.IsRead)
	}
}

func TestListRendersMessagesAndPreviews(t *testing.T) {
	service, _, users := newTestNotificationsService()
	ctx := context.Background()

	sender := primitive.NewObjectID()
	recipient := primitive.NewObjectID()
	users.previews[sender] = user.Preview{ID: sender, Username: "alice"}

	require.NoError(t, service.NotifyFollow(ctx, sender, recipient))

	list, total, err := service.List(ctx, recipient, false, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Sender)
	assert.Equal(t, "alice", list[0].Sender.Username)
	assert.Equal(t, "started following you", list[0].Message)
}

func TestUnreadFilterAndMarkRead(t *testing.T) {
	service, repo, _ := newTestNotificationsService()
	ctx := context.Background()

	sender := primitive.NewObjectID()
	recipient := primitive.NewObjectID()
	other := primitive.NewObjectID()

	require.NoError(t, service.NotifyFollow(ctx, sender, recipient))
	require.NoError(t, service.NotifyFollow(ctx, sender, recipient))
	require.NoError(t, service.NotifyFollow(ctx, sender, other))

	count, err := service.UnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Only the recipient can mark their own notification.
	err = service.MarkRead(ctx, repo.created[0].ID, other)
	assert.ErrorIs(t, err, infrastructure.ErrNotFound)

	require.NoError(t, service.MarkRead(ctx, repo.created[0].ID, recipient))

	unread, _, err := service.List(ctx, recipient, true, 1, 20)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	marked, err := service.MarkAllRead(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	count, err = service.UnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRenderMessageFallback(t *testing.T) {
	n := &Notification{Type: "unknown-type"}
	assert.Equal(t, "interacted with your content", n.RenderMessage())

	n = &Notification{Type: TypeStoryView}
	assert.Equal(t, "viewed your story", n.RenderMessage())
}
