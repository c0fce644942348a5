package post

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
	CreatePost(ctx context.Context, p *Post) (*Post, error)
	GetPost(ctx context.Context, id primitive.ObjectID) (*Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	ListByAuthors(ctx context.Context, authors []primitive.ObjectID, page, limit int) ([]*Post, int64, error)
	ListByHashtag(ctx context.Context, tag string, page, limit int) ([]*Post, int64, error)
	// ToggleLike flips the caller's membership in the likes set atomically
	// and returns the post as it stands afterwards.
	ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (*Post, error)
	CreateComment(ctx context.Context, c *Comment) (*Comment, error)
	ListComments(ctx context.Context, postID primitive.ObjectID, page, limit int) ([]*Comment, int64, error)
	DeleteCommentsForPost(ctx context.Context, postID primitive.ObjectID) error
	IncCommentsCount(ctx context.Context, postID primitive.ObjectID, delta int) error
}

type mongoRepository struct {
	posts    *mongo.Collection
	comments *mongo.Collection
}

func NewRepository(db *database.Database) Repository {
	return &mongoRepository{posts: db.Posts(), comments: db.Comments()}
}

func (r *mongoRepository) CreatePost(ctx context.Context, p *Post) (*Post, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	p.Likes = []primitive.ObjectID{}

	if _, err := r.posts.InsertOne(ctx, p); err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}
	return p, nil
}

func (r *mongoRepository) GetPost(ctx context.Context, id primitive.ObjectID) (*Post, error) {
	var p Post
	err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("post %w", infrastructure.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding post: %w", err)
	}
	return &p, nil
}

func (r *mongoRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("post %w", infrastructure.ErrNotFound)
	}
	return nil
}

func (r *mongoRepository) ListByAuthors(ctx context.Context, authors []primitive.ObjectID, page, limit int) ([]*Post, int64, error) {
	return r.list(ctx, bson.M{"author": bson.M{"$in": authors}}, page, limit)
}

func (r *mongoRepository) ListByHashtag(ctx context.Context, tag string, page, limit int) ([]*Post, int64, error) {
	return r.list(ctx, bson.M{"hashtags": tag}, page, limit)
}

func (r *mongoRepository) list(ctx context.Context, filter bson.M, page, limit int) ([]*Post, int64, error) {
	total, err := r.posts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting posts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing posts: %w", err)
	}
	defer cur.Close(ctx)

	var posts []*Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("decoding posts: %w", err)
	}
	return posts, total, nil
}

func (r *mongoRepository) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (*Post, error) {
	// A single aggregation-pipeline update: membership test, set
	// add/remove and count refresh happen atomically on the server, so
	// concurrent toggles cannot lose updates.
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{{Key: "likes", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{userID, "$likes"}}},
			bson.D{{Key: "$setDifference", Value: bson.A{"$likes", bson.A{userID}}}},
			bson.D{{Key: "$concatArrays", Value: bson.A{"$likes", bson.A{userID}}}},
		}}}}}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "likesCount", Value: bson.D{{Key: "$size", Value: "$likes"}}},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p Post
	err := r.posts.FindOneAndUpdate(ctx, bson.M{"_id": postID}, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("post %w", infrastructure.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("toggling like: %w", err)
	}
	return &p, nil
}

func (r *mongoRepository) CreateComment(ctx context.Context, c *Comment) (*Comment, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Likes = []primitive.ObjectID{}

	if _, err := r.comments.InsertOne(ctx, c); err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}
	return c, nil
}

func (r *mongoRepository) ListComments(ctx context.Context, postID primitive.ObjectID, page, limit int) ([]*Comment, int64, error) {
	filter := bson.M{"post": postID}

	total, err := r.comments.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting comments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.comments.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing comments: %w", err)
	}
	defer cur.Close(ctx)

	var comments []*Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, 0, fmt.Errorf("decoding comments: %w", err)
	}
	return comments, total, nil
}

func (r *mongoRepository) DeleteCommentsForPost(ctx context.Context, postID primitive.ObjectID) error {
	if _, err := r.comments.DeleteMany(ctx, bson.M{"post": postID}); err != nil {
		return fmt.Errorf("deleting comments: %w", err)
	}
	return nil
}

func (r *mongoRepository) IncCommentsCount(ctx context.Context, postID primitive.ObjectID, delta int) error {
	_, err := r.posts.UpdateByID(ctx, postID, bson.M{"$inc": bson.M{"commentsCount": delta}})
	if err != nil {
		return fmt.Errorf("updating comment count: %w", err)
	}
	return nil
}
