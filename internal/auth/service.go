package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"torilynq/infrastructure"
	"torilynq/internal/user"
	"torilynq/pkg/jwt"
)

const (
	minPasswordLength = 6
	// Entropy floor for chosen (changed) passwords. Registration keeps the
	// legacy length-only rule so existing clients keep working.
	minPasswordEntropy = 20
)

// Mailer delivers account emails. Best-effort only.
type Mailer interface {
	SendWelcomeEmail(to, username string) error
	SendPasswordChangedEmail(to, username string) error
}

type Service struct {
	users      user.Repository
	tokens     *jwt.Service
	denylist   Denylist
	mailer     Mailer
	bcryptCost int
}

func NewService(users user.Repository, tokens *jwt.Service, denylist Denylist, mailer Mailer, bcryptCost int) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		denylist:   denylist,
		mailer:     mailer,
		bcryptCost: bcryptCost,
	}
}

// TokenPair is returned by every flow that (re)authenticates the caller.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (s *Service) Register(ctx context.Context, username, email, password string) (*user.User, *TokenPair, error) {
	if username == "" || email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: please provide username, email and password", infrastructure.ErrValidation)
	}

	username = user.NormalizeUsername(username)
	email = user.NormalizeEmail(email)
	if err := user.ValidateUsername(username); err != nil {
		return nil, nil, err
	}
	if err := user.ValidateEmail(email); err != nil {
		return nil, nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	// The unique indexes are the real guard against duplicate identities; the
	// insert reports which field collided.
	u, err := s.users.Create(ctx, &user.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		IsOnline: true,
		LastSeen: time.Now().UTC(),
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(u.ID)
	if err != nil {
		return nil, nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(u.Email, u.Username); err != nil {
			slog.Warn("welcome email failed", "user", u.Username, "error", err)
		}
	}

	u.Password = ""
	return u, pair, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*user.User, *TokenPair, error) {
	if email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: please provide email and password", infrastructure.ErrValidation)
	}

	// Unknown email and wrong password return the same error so responses
	// carry no enumeration signal.
	u, err := s.users.GetByEmailWithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, infrastructure.ErrNotFound) {
			return nil, nil, infrastructure.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !matchSecret(password, u.Password) {
		return nil, nil, infrastructure.ErrInvalidCredentials
	}

	if err := s.users.SetPresence(ctx, u.ID, true); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(u.ID)
	if err != nil {
		return nil, nil, err
	}

	u.Password = ""
	u.IsOnline = true
	return u, pair, nil
}

func (s *Service) Logout(ctx context.Context, id primitive.ObjectID) error {
	if err := s.users.SetPresence(ctx, id, false); err != nil {
		return err
	}
	return s.revokeOutstanding(ctx, id)
}

func (s *Service) Me(ctx context.Context, id primitive.ObjectID) (*user.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfileInput fields are pointers so "absent" and "set to empty" are
// distinguishable, matching partial-update semantics.
type UpdateProfileInput struct {
	Username *string
	Bio      *string
	Avatar   *string
}

func (s *Service) UpdateProfile(ctx context.Context, u *user.User, input UpdateProfileInput) (*user.User, error) {
	fields := bson.M{}

	if input.Username != nil {
		username := user.NormalizeUsername(*input.Username)
		if err := user.ValidateUsername(username); err != nil {
			return nil, err
		}
		if username != u.Username {
			fields["username"] = username
		}
	}
	if input.Bio != nil {
		if err := user.ValidateBio(*input.Bio); err != nil {
			return nil, err
		}
		fields["bio"] = *input.Bio
	}
	if input.Avatar != nil && *input.Avatar != "" {
		fields["avatar"] = *input.Avatar
	}

	if len(fields) == 0 {
		return u, nil
	}
	// Profile updates never touch the password field, so no rehash happens here.
	return s.users.UpdateFields(ctx, u.ID, fields)
}

func (s *Service) UpdatePassword(ctx context.Context, id primitive.ObjectID, currentPassword, newPassword string) (*user.User, *TokenPair, error) {
	if currentPassword == "" || newPassword == "" {
		return nil, nil, fmt.Errorf("%w: please provide current and new password", infrastructure.ErrValidation)
	}
	if err := validateNewPassword(newPassword); err != nil {
		return nil, nil, err
	}

	u, err := s.users.GetByIDWithPassword(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !matchSecret(currentPassword, u.Password) {
		return nil, nil, fmt.Errorf("%w: current password is incorrect", infrastructure.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, string(hash)); err != nil {
		return nil, nil, err
	}

	// Outstanding tokens die with the old password; the caller gets a fresh pair.
	if err := s.revokeOutstanding(ctx, id); err != nil {
		return nil, nil, err
	}
	pair, err := s.issueTokens(id)
	if err != nil {
		return nil, nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordChangedEmail(u.Email, u.Username); err != nil {
			slog.Warn("password changed email failed", "user", u.Username, "error", err)
		}
	}

	u.Password = ""
	return u, pair, nil
}

func (s *Service) issueTokens(id primitive.ObjectID) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(id.Hex())
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(id.Hex())
	if err != nil {
		return nil, fmt.Errorf("issuing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) revokeOutstanding(ctx context.Context, id primitive.ObjectID) error {
	// The entry only needs to outlive the longest-lived token still in flight.
	ttl := s.tokens.RefreshTokenTTL()
	if access := s.tokens.AccessTokenTTL(); access > ttl {
		ttl = access
	}
	return s.denylist.Revoke(ctx, id.Hex(), time.Now(), ttl)
}

// matchSecret compares via bcrypt's own verify routine; a mismatch is a
// plain false, never an error path.
func matchSecret(candidate, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", infrastructure.ErrValidation, minPasswordLength)
	}
	return nil
}

func validateNewPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	if err := passwordvalidator.Validate(password, minPasswordEntropy); err != nil {
		return fmt.Errorf("%w: %s", infrastructure.ErrValidation, err.Error())
	}
	return nil
}
