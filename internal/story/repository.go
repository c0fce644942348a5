package story

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
	Create(ctx context.Context, s *Story) (*Story, error)
	// GetByID only returns unexpired stories; the TTL monitor removes
	// documents with a lag, so expiry is re-checked in the query.
	GetByID(ctx context.Context, id primitive.ObjectID) (*Story, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByAuthors(ctx context.Context, authors []primitive.ObjectID) ([]*Story, error)
	// AddViewer reports whether the viewer was newly recorded.
	AddViewer(ctx context.Context, storyID, viewerID primitive.ObjectID) (bool, error)
}

type mongoRepository struct {
	stories *mongo.Collection
}

func NewRepository(db *database.Database) Repository {
	return &mongoRepository{stories: db.Stories()}
}

func (r *mongoRepository) Create(ctx context.Context, s *Story) (*Story, error) {
	now := time.Now().UTC()
	s.ID = primitive.NewObjectID()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(Lifetime)
	s.Viewers = []primitive.ObjectID{}

	if _, err := r.stories.InsertOne(ctx, s); err != nil {
		return nil, fmt.Errorf("inserting story: %w", err)
	}
	return s, nil
}

func unexpired() bson.M {
	return bson.M{"expiresAt": bson.M{"$gt": time.Now().UTC()}}
}

func (r *mongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Story, error) {
	filter := unexpired()
	filter["_id"] = id

	var s Story
	err := r.stories.FindOne(ctx, filter).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("story %w", infrastructure.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding story: %w", err)
	}
	return &s, nil
}

func (r *mongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.stories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting story: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("story %w", infrastructure.ErrNotFound)
	}
	return nil
}

func (r *mongoRepository) ListByAuthors(ctx context.Context, authors []primitive.ObjectID) ([]*Story, error) {
	filter := unexpired()
	filter["author"] = bson.M{"$in": authors}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.stories.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing stories: %w", err)
	}
	defer cur.Close(ctx)

	var stories []*Story
	if err := cur.All(ctx, &stories); err != nil {
		return nil, fmt.Errorf("decoding stories: %w", err)
	}
	return stories, nil
}

func (r *mongoRepository) AddViewer(ctx context.Context, storyID, viewerID primitive.ObjectID) (bool, error) {
	filter := unexpired()
	filter["_id"] = storyID

	res, err := r.stories.UpdateOne(ctx, filter, bson.M{"$addToSet": bson.M{"viewers": viewerID}})
	if err != nil {
		return false, fmt.Errorf("recording story view: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, fmt.Errorf("story %w", infrastructure.ErrNotFound)
	}
	return res.ModifiedCount > 0, nil
}
