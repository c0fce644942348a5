package chat

import (
	"context"
	"errors"
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
	// GetOrCreateDirect returns the 1-on-1 conversation between the two
	// users, creating it on first contact. The upsert keeps concurrent
	// first messages from spawning duplicates.
	GetOrCreateDirect(ctx context.Context, a, b primitive.ObjectID) (*Conversation, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Conversation, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*Conversation, int64, error)
	CreateMessage(ctx context.Context, m *Message) (*Message, error)
	ListMessages(ctx context.Context, conversationID primitive.ObjectID, page, limit int) ([]*Message, int64, error)
	GetMessages(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*Message, error)
	// MarkRead flags every unread message not sent by reader as read.
	MarkRead(ctx context.Context, conversationID, reader primitive.ObjectID) (int64, error)
}

type mongoRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewRepository(db *database.Database) Repository {
	return &mongoRepository{conversations: db.Conversations(), messages: db.Messages()}
}

func (r *mongoRepository) GetOrCreateDirect(ctx context.Context, a, b primitive.ObjectID) (*Conversation, error) {
	now := time.Now().UTC()

	filter := bson.M{
		"isGroup":      false,
		"participants": bson.M{"$all": bson.A{a, b}, "$size": 2},
	}
	update := bson.M{"$setOnInsert": bson.M{
		"participants": bson.A{a, b},
		"isGroup":      false,
		"createdAt":    now,
		"updatedAt":    now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var c Conversation
	if err := r.conversations.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c); err != nil {
		return nil, fmt.Errorf("upserting conversation: %w", err)
	}
	return &c, nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Conversation, error) {
	var c Conversation
	err := r.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("conversation %w", infrastructure.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding conversation: %w", err)
	}
	return &c, nil
}

func (r *mongoRepository) ListForUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*Conversation, int64, error) {
	filter := bson.M{"participants": userID}

	total, err := r.conversations.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting conversations: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.conversations.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing conversations: %w", err)
	}
	defer cur.Close(ctx)

	var conversations []*Conversation
	if err := cur.All(ctx, &conversations); err != nil {
		return nil, 0, fmt.Errorf("decoding conversations: %w", err)
	}
	return conversations, total, nil
}

func (r *mongoRepository) CreateMessage(ctx context.Context, m *Message) (*Message, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := r.messages.InsertOne(ctx, m); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	_, err := r.conversations.UpdateByID(ctx, m.ConversationID, bson.M{
		"$set": bson.M{"lastMessage": m.ID, "updatedAt": now},
	})
	if err != nil {
		return nil, fmt.Errorf("updating conversation: %w", err)
	}
	return m, nil
}

func (r *mongoRepository) ListMessages(ctx context.Context, conversationID primitive.ObjectID, page, limit int) ([]*Message, int64, error) {
	filter := bson.M{"conversation": conversationID}

	total, err := r.messages.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting messages: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing messages: %w", err)
	}
	defer cur.Close(ctx)

	var messages []*Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, 0, fmt.Errorf("decoding messages: %w", err)
	}
	return messages, total, nil
}

func (r *mongoRepository) GetMessages(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*Message, error) {
	result := make(map[primitive.ObjectID]*Message, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cur, err := r.messages.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	defer cur.Close(ctx)

	var messages []*Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}
	for _, m := range messages {
		result[m.ID] = m
	}
	return result, nil
}

func (r *mongoRepository) MarkRead(ctx context.Context, conversationID, reader primitive.ObjectID) (int64, error) {
	now := time.Now().UTC()
	res, err := r.messages.UpdateMany(ctx,
		bson.M{
			"conversation": conversationID,
			"sender":       bson.M{"$ne": reader},
			"isRead":       false,
		},
		bson.M{"$set": bson.M{"isRead": true, "readAt": now, "updatedAt": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	return res.ModifiedCount, nil
}
