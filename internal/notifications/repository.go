package notifications

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"torilynq/infrastructure"
	"torilynq/internal/database"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForRecipient(ctx context.Context, recipient primitive.ObjectID, unreadOnly bool, page, limit int) ([]*Notification, int64, error)
	UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	// MarkRead only succeeds for the recipient's own notification.
	MarkRead(ctx context.Context, id, recipient primitive.ObjectID) error
	MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error)
}

type mongoRepository struct {
	notifications *mongo.Collection
}

func NewRepository(db *database.Database) Repository {
	return &mongoRepository{notifications: db.Notifications()}
}

func (r *mongoRepository) Create(ctx context.Context, n *Notification) error {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()

	if _, err := r.notifications.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func (r *mongoRepository) ListForRecipient(ctx context.Context, recipient primitive.ObjectID, unreadOnly bool, page, limit int) ([]*Notification, int64, error) {
	filter := bson.M{"recipient": recipient}
	if unreadOnly {
		filter["isRead"] = false
	}

	total, err := r.notifications.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting notifications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.notifications.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing notifications: %w", err)
	}
	defer cur.Close(ctx)

	var list []*Notification
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, fmt.Errorf("decoding notifications: %w", err)
	}
	return list, total, nil
}

func (r *mongoRepository) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	count, err := r.notifications.CountDocuments(ctx, bson.M{"recipient": recipient, "isRead": false})
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

func (r *mongoRepository) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := r.notifications.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": recipient},
		bson.M{"$set": bson.M{"isRead": true, "readAt": now}},
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("notification %w", infrastructure.ErrNotFound)
	}
	return nil
}

func (r *mongoRepository) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	now := time.Now().UTC()
	res, err := r.notifications.UpdateMany(ctx,
		bson.M{"recipient": recipient, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}
