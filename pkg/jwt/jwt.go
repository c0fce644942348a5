package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"torilynq/infrastructure"
)

// Claims carried by both access and refresh tokens. Subject is the hex
// user id; validity is purely a function of signature and expiry.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewService(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Service {
	if len(refreshSecret) == 0 {
		refreshSecret = accessSecret
	}
	return &Service{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (s *Service) IssueAccessToken(userID string) (string, error) {
	return sign(userID, s.accessSecret, s.accessTTL)
}

func (s *Service) IssueRefreshToken(userID string) (string, error) {
	return sign(userID, s.refreshSecret, s.refreshTTL)
}

func (s *Service) VerifyAccessToken(tokenString string) (*Claims, error) {
	return verify(tokenString, s.accessSecret)
}

func (s *Service) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return verify(tokenString, s.refreshSecret)
}

func (s *Service) AccessTokenTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTokenTTL() time.Duration { return s.refreshTTL }

func sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func verify(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, infrastructure.ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, infrastructure.ErrTokenExpired
		}
		return nil, infrastructure.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, infrastructure.ErrInvalidToken
}
