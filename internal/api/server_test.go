package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"torilynq/internal/auth"
	"torilynq/internal/chat"
	"torilynq/internal/media"
	"torilynq/internal/notifications"
	"torilynq/internal/post"
	"torilynq/internal/story"
	"torilynq/internal/user"
)

func newRoutingServer(mediaHandler *media.Handler) *Server {
	// Routing only; nothing here ever invokes a handler or the middleware.
	return NewServer(":0", auth.NewMiddleware(nil, nil, nil), Handlers{
		Auth:          &auth.Handler{},
		Users:         &user.Handler{},
		Posts:         &post.Handler{},
		Stories:       &story.Handler{},
		Chat:          &chat.Handler{},
		Notifications: &notifications.Handler{},
		Media:         mediaHandler,
	})
}

func TestRouteSurface(t *testing.T) {
	s := newRoutingServer(nil)

	cases := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodGet, "/api/health", true},
		{http.MethodPost, "/api/auth/register", true},
		{http.MethodPost, "/api/auth/login", true},
		{http.MethodPost, "/api/auth/logout", true},
		{http.MethodGet, "/api/auth/me", true},
		{http.MethodPut, "/api/auth/update", true},
		{http.MethodPut, "/api/auth/update-password", true},
		{http.MethodGet, "/api/users/search", true},
		{http.MethodGet, "/api/users/alice", true},
		{http.MethodPost, "/api/users/656e6f7567682062797465732121/follow", true},
		{http.MethodPost, "/api/posts", true},
		{http.MethodGet, "/api/posts/feed", true},
		{http.MethodGet, "/api/posts/hashtag/golang", true},
		{http.MethodPost, "/api/posts/656e6f7567682062797465732121/like", true},
		{http.MethodGet, "/api/stories/feed", true},
		{http.MethodPost, "/api/stories/656e6f7567682062797465732121/view", true},
		{http.MethodGet, "/api/conversations", true},
		{http.MethodPut, "/api/conversations/656e6f7567682062797465732121/read", true},
		{http.MethodGet, "/api/notifications/unread-count", true},
		{http.MethodPut, "/api/notifications/read-all", true},

		// Not part of the surface.
		{http.MethodPut, "/api/auth/profile", false},
		{http.MethodPut, "/api/auth/password", false},
		{http.MethodPost, "/api/media/upload", false},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			var m mux.RouteMatch
			matched := s.router.Match(req, &m)
			if tc.want {
				assert.True(t, matched, "no route for %s %s", tc.method, tc.path)
				assert.NoError(t, m.MatchErr)
			} else {
				assert.False(t, matched)
			}
		})
	}
}

func TestMediaRouteMountedOnlyWithStore(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", nil)

	var m mux.RouteMatch
	assert.False(t, newRoutingServer(nil).router.Match(req, &m))

	m = mux.RouteMatch{}
	assert.True(t, newRoutingServer(&media.Handler{}).router.Match(req, &m))
}
