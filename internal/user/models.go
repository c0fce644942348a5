package user

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
)

const (
	// Default avatar served until the user uploads one.
	DefaultAvatar = "https://res.cloudinary.com/demo/image/upload/v1312461204/sample.jpg"

	RoleUser = "user"

	maxBioLength = 160
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailRe    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// User is the credential-store document. The password hash is excluded from
// reads by default and only projected in explicitly during login and
// password change.
type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username  string               `bson:"username" json:"username"`
	Email     string               `bson:"email" json:"email,omitempty"`
	Password  string               `bson:"password,omitempty" json:"-"`
	Avatar    string               `bson:"avatar" json:"avatar"`
	Bio       string               `bson:"bio" json:"bio"`
	Role      string               `bson:"role" json:"role"`
	Followers []primitive.ObjectID `bson:"followers" json:"-"`
	Following []primitive.ObjectID `bson:"following" json:"-"`
	IsOnline  bool                 `bson:"isOnline" json:"isOnline"`
	LastSeen  time.Time            `bson:"lastSeen" json:"lastSeen"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// PublicProfile is the outward-facing representation: follower sets are
// collapsed to counts and the email never leaves the store.
type PublicProfile struct {
	ID        primitive.ObjectID `json:"_id"`
	Username  string             `json:"username"`
	Avatar    string             `json:"avatar"`
	Bio       string             `json:"bio"`
	Followers int                `json:"followers"`
	Following int                `json:"following"`
	IsOnline  bool               `json:"isOnline"`
	LastSeen  time.Time          `json:"lastSeen"`
	CreatedAt time.Time          `json:"createdAt"`
}

func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Followers: len(u.Followers),
		Following: len(u.Following),
		IsOnline:  u.IsOnline,
		LastSeen:  u.LastSeen,
		CreatedAt: u.CreatedAt,
	}
}

func (u *User) IsFollowedBy(id primitive.ObjectID) bool {
	for _, f := range u.Followers {
		if f == id {
			return true
		}
	}
	return false
}

// Preview is the author snippet embedded in posts, comments and
// notifications.
type Preview struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
	Avatar   string             `json:"avatar"`
}

func (u *User) Preview() Preview {
	return Preview{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// NormalizeUsername lowercases the handle; uniqueness is case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-30 characters of letters, numbers and underscores", infrastructure.ErrValidation)
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: please provide a valid email", infrastructure.ErrValidation)
	}
	return nil
}

func ValidateBio(bio string) error {
	if len(bio) > maxBioLength {
		return fmt.Errorf("%w: bio cannot exceed %d characters", infrastructure.ErrValidation, maxBioLength)
	}
	return nil
}
