package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database wraps the Mongo client and hands out collection handles so the
// collection names live in one place.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, name string) (*Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	d := &Database{client: client, db: client.Database(name)}
	if err := d.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("creating indexes: %w", err)
	}
	return d, nil
}

func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *Database) Users() *mongo.Collection         { return d.db.Collection("users") }
func (d *Database) Posts() *mongo.Collection         { return d.db.Collection("posts") }
func (d *Database) Comments() *mongo.Collection      { return d.db.Collection("comments") }
func (d *Database) Stories() *mongo.Collection       { return d.db.Collection("stories") }
func (d *Database) Conversations() *mongo.Collection { return d.db.Collection("conversations") }
func (d *Database) Messages() *mongo.Collection      { return d.db.Collection("messages") }
func (d *Database) Notifications() *mongo.Collection { return d.db.Collection("notifications") }

// ensureIndexes creates the indexes the application depends on: uniqueness of
// username/email, the story TTL, and the hot query paths. CreateMany is
// idempotent for identical definitions.
func (d *Database) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := d.Users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = d.Posts().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "hashtags", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = d.Comments().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "post", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "author", Value: 1}}},
	})
	if err != nil {
		return err
	}

	// Mongo removes expired stories on its own via the TTL monitor.
	_, err = d.Stories().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = d.Conversations().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "participants", Value: 1}}},
		{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = d.Messages().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "sender", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = d.Notifications().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "isRead", Value: 1}}},
	})
	return err
}
