package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
	"torilynq/internal/user"
	"torilynq/pkg/jwt"
)

// AccessTokenCookie is the cookie fallback checked after the
// Authorization header.
const AccessTokenCookie = "accessToken"

const RefreshTokenCookie = "refreshToken"

type Middleware struct {
	tokens   *jwt.Service
	users    user.Repository
	denylist Denylist
}

func NewMiddleware(tokens *jwt.Service, users user.Repository, denylist Denylist) *Middleware {
	return &Middleware{tokens: tokens, users: users, denylist: denylist}
}

// Require rejects the request with 401 unless a valid access token resolves
// to an existing user. The resolved user (password excluded) is attached to
// the request context.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.resolve(r)
		if err != nil {
			infrastructure.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(user.NewContext(r.Context(), u)))
	})
}

// Optional attaches the user when a valid token is present and proceeds
// anonymously otherwise, letting handlers personalize public reads.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, err := m.resolve(r); err == nil {
			r = r.WithContext(user.NewContext(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles gates a handler on the resolved user's role. Compose after
// Require. The default deployment has a single implicit role, so this is a
// no-op in practice, but new roles attach without touching the gate.
func RequireRoles(next http.Handler, roles ...string) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := user.FromContext(r.Context())
		if !ok {
			infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
			return
		}
		if _, ok := allowed[u.Role]; !ok {
			infrastructure.RespondError(w, infrastructure.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) resolve(r *http.Request) (*user.User, error) {
	token := extractToken(r)
	if token == "" {
		return nil, infrastructure.ErrMissingToken
	}

	claims, err := m.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	if claims.IssuedAt != nil {
		revoked, err := m.denylist.IsRevoked(r.Context(), claims.UserID, claims.IssuedAt.Time)
		if err != nil {
			// A denylist outage must not grant revoked tokens a pass.
			slog.Error("denylist lookup failed", "error", err)
			return nil, infrastructure.ErrUnauthenticated
		}
		if revoked {
			return nil, infrastructure.ErrInvalidToken
		}
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, infrastructure.ErrInvalidToken
	}

	// A token for a since-deleted user is as good as no token.
	u, err := m.users.GetByID(r.Context(), id)
	if err != nil {
		return nil, infrastructure.ErrUnauthenticated
	}
	return u, nil
}

// extractToken checks the Authorization header first, then the accessToken
// cookie.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// MustUser returns the context user; handlers registered behind Require can
// assume it is present.
func MustUser(ctx context.Context) *user.User {
	u, ok := user.FromContext(ctx)
	if !ok {
		panic("auth: no user in context; handler registered without Require")
	}
	return u
}
