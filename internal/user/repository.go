package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"torilynq/infrastructure"
	"torilynq/internal/database"
)

type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByEmailWithPassword projects the password hash in; login is the
	// only caller.
	GetByEmailWithPassword(ctx context.Context, email string) (*User, error)
	GetByIDWithPassword(ctx context.Context, id primitive.ObjectID) (*User, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (*User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	SetPresence(ctx context.Context, id primitive.ObjectID, online bool) error
	Search(ctx context.Context, query string, page, limit int) ([]*User, int64, error)
	// Follow and Unfollow report whether the relationship actually changed,
	// so retries stay idempotent and notifications fire once.
	Follow(ctx context.Context, follower, target primitive.ObjectID) (bool, error)
	Unfollow(ctx context.Context, follower, target primitive.ObjectID) (bool, error)
	Previews(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Preview, error)
}

type mongoRepository struct {
	users *mongo.Collection
}

func NewRepository(db *database.Database) Repository {
	return &mongoRepository{users: db.Users()}
}

// excludePassword keeps the hash out of every read that does not opt in.
var excludePassword = bson.M{"password": 0}

func (r *mongoRepository) Create(ctx context.Context, u *User) (*User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Avatar == "" {
		u.Avatar = DefaultAvatar
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Followers == nil {
		u.Followers = []primitive.ObjectID{}
	}
	if u.Following == nil {
		u.Following = []primitive.ObjectID{}
	}

	if _, err := r.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateFieldError(err)
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// duplicateFieldError names the conflicting unique index so registration can
// report which field collided.
func duplicateFieldError(err error) error {
	if strings.Contains(err.Error(), "email") {
		return infrastructure.ErrDuplicateEmail
	}
	return infrastructure.ErrDuplicateUsername
}

func (r *mongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, false)
}

func (r *mongoRepository) GetByIDWithPassword(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, true)
}

func (r *mongoRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.findOne(ctx, bson.M{"username": NormalizeUsername(username)}, false)
}

func (r *mongoRepository) GetByEmailWithPassword(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)}, true)
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M, withPassword bool) (*User, error) {
	opts := options.FindOne()
	if !withPassword {
		opts.SetProjection(excludePassword)
	}

	var u User
	err := r.users.FindOne(ctx, filter, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %w", infrastructure.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return &u, nil
}

func (r *mongoRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (*User, error) {
	fields["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(excludePassword)

	var u User
	err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %w", infrastructure.ErrNotFound)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateFieldError(err)
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return &u, nil
}

func (r *mongoRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	update := bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}}
	res, err := r.users.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %w", infrastructure.ErrNotFound)
	}
	return nil
}

func (r *mongoRepository) SetPresence(ctx context.Context, id primitive.ObjectID, online bool) error {
	update := bson.M{"$set": bson.M{"isOnline": online, "lastSeen": time.Now().UTC()}}
	_, err := r.users.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("updating presence: %w", err)
	}
	return nil
}

func (r *mongoRepository) Search(ctx context.Context, query string, page, limit int) ([]*User, int64, error) {
	filter := bson.M{"username": bson.M{
		"$regex":   "^" + regexQuote(NormalizeUsername(query)),
		"$options": "i",
	}}

	total, err := r.users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	opts := options.Find().
		SetProjection(excludePassword).
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("searching users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*User
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decoding users: %w", err)
	}
	return users, total, nil
}

// regexQuote escapes regex metacharacters in the raw search input.
func regexQuote(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (r *mongoRepository) Follow(ctx context.Context, follower, target primitive.ObjectID) (bool, error) {
	// $addToSet keeps the toggle atomic and idempotent; no read-modify-write.
	res, err := r.users.UpdateByID(ctx, target, bson.M{"$addToSet": bson.M{"followers": follower}})
	if err != nil {
		return false, fmt.Errorf("adding follower: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, fmt.Errorf("user %w", infrastructure.ErrNotFound)
	}

	if _, err := r.users.UpdateByID(ctx, follower, bson.M{"$addToSet": bson.M{"following": target}}); err != nil {
		return false, fmt.Errorf("adding following: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoRepository) Unfollow(ctx context.Context, follower, target primitive.ObjectID) (bool, error) {
	res, err := r.users.UpdateByID(ctx, target, bson.M{"$pull": bson.M{"followers": follower}})
	if err != nil {
		return false, fmt.Errorf("removing follower: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, fmt.Errorf("user %w", infrastructure.ErrNotFound)
	}

	if _, err := r.users.UpdateByID(ctx, follower, bson.M{"$pull": bson.M{"following": target}}); err != nil {
		return false, fmt.Errorf("removing following: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoRepository) Previews(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Preview, error) {
	previews := make(map[primitive.ObjectID]Preview, len(ids))
	if len(ids) == 0 {
		return previews, nil
	}

	opts := options.Find().SetProjection(bson.M{"username": 1, "avatar": 1})
	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("loading user previews: %w", err)
	}
	defer cur.Close(ctx)

	var users []*User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decoding user previews: %w", err)
	}
	for _, u := range users {
		previews[u.ID] = u.Preview()
	}
	return previews, nil
}
