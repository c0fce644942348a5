package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"torilynq/internal/user"
	"torilynq/pkg/jwt"
)

func newTestMiddleware(t *testing.T) (*Middleware, *fakeUsers, *jwt.Service, Denylist) {
	t.Helper()
	users := newFakeUsers()
	tokens := jwt.NewService([]byte("test-secret"), nil, time.Hour, 24*time.Hour)
	denylist := NewMemoryDenylist()
	return NewMiddleware(tokens, users, denylist), users, tokens, denylist
}

func seedUser(t *testing.T, users *fakeUsers) *user.User {
	t.Helper()
	u, err := users.Create(context.Background(), &user.User{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "irrelevant-hash",
	})
	require.NoError(t, err)
	return u
}

// capture records whether the wrapped handler ran and which user it saw.
func capture(ran *bool, seen **user.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*ran = true
		if u, ok := user.FromContext(r.Context()); ok {
			*seen = u
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRejectsMissingToken(t *testing.T) {
	mw, _, _, _ := newTestMiddleware(t)

	var ran bool
	var seen *user.User
	rec := httptest.NewRecorder()
	mw.Require(capture(&ran, &seen)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, ran)
}

func TestRequireAcceptsBearerToken(t *testing.T) {
	mw, users, tokens, _ := newTestMiddleware(t)
	u := seedUser(t, users)

	token, err := tokens.IssueAccessToken(u.ID.Hex())
	require.NoError(t, err)

	var ran bool
	var seen *user.User
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Require(capture(&ran, &seen)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, u.ID, seen.ID)
	assert.Empty(t, seen.Password)
}

func TestRequireAcceptsCookieToken(t *testing.T) {
	mw, users, tokens, _ := newTestMiddleware(t)
	u := seedUser(t, users)

	token, err := tokens.IssueAccessToken(u.ID.Hex())
	require.NoError(t, err)

	var ran bool
	var seen *user.User
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()
	mw.Require(capture(&ran, &seen)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, u.ID, seen.ID)
}

func TestRequireRejectsExpiredToken(t *testing.T) {
	mw, users, _, _ := newTestMiddleware(t)
	u := seedUser(t, users)

	expired := jwt.NewService([]byte("test-secret"), nil, -time.Minute, time.Hour)
	token, err := expired.IssueAccessToken(u.ID.Hex())
	require.NoError(t, err)

	var ran bool
	var seen *user.User
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Require(capture(&ran, &seen)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, ran)
}

func TestRequireRejectsDeletedUser(t *testing.T) {
	mw, _, tokens, _ := newTestMiddleware(t)

	// Valid signature, but the subject never existed.
	token, err := tokens.IssueAccessToken("64f000000000000000000001")
	require.NoError(t, err)

	var ran bool
	var seen *user.User
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Require(capture(&ran, &seen)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, ran)
}

func TestRequireRejectsRevokedToken(t *testing.T) {
	mw, users, tokens, denylist := newTestMiddleware(t)
	u := seedUser(t, users)

	token, err := tokens.IssueAccessToken(u.ID.Hex())
	require.NoError(t, err)

	// Revoke everything issued up to a moment after the token was minted.
	require.NoError(t, denylist.Revoke(context.Background(), u.ID.Hex(), time.Now().Add(2*time.Second), time.Hour))

	var ran bool
	var seen *user.User
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Require(capture(&ran, &seen)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, ran)
}

func TestOptionalProceedsAnonymously(t *testing.T) {
	mw, _, _, _ := newTestMiddleware(t)

	var ran bool
	var seen *user.User
	rec := httptest.NewRecorder()
	mw.Optional(capture(&ran, &seen)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
	assert.Nil(t, seen)
}

func TestOptionalAttachesUserWhenTokenValid(t *testing.T) {
	mw, users, tokens, _ := newTestMiddleware(t)
	u := seedUser(t, users)

	token, err := tokens.IssueAccessToken(u.ID.Hex())
	require.NoError(t, err)

	var ran bool
	var seen *user.User
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Optional(capture(&ran, &seen)).ServeHTTP(rec, req)

	assert.True(t, ran)
	require.NotNil(t, seen)
	assert.Equal(t, u.ID, seen.ID)
}

func TestRequireRolesGate(t *testing.T) {
	mw, users, tokens, _ := newTestMiddleware(t)
	u := seedUser(t, users)

	token, err := tokens.IssueAccessToken(u.ID.Hex())
	require.NoError(t, err)

	var ran bool
	var seen *user.User

	adminOnly := mw.Require(RequireRoles(capture(&ran, &seen), "admin"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, ran)

	userAllowed := mw.Require(RequireRoles(capture(&ran, &seen), user.RoleUser))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	userAllowed.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
}
