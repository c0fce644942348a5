package infrastructure

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("%w: bad input", ErrValidation), http.StatusBadRequest},
		{"duplicate username", ErrDuplicateUsername, http.StatusBadRequest},
		{"duplicate email", ErrDuplicateEmail, http.StatusBadRequest},
		{"invalid credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"missing token", ErrMissingToken, http.StatusUnauthorized},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", ErrTokenExpired, http.StatusUnauthorized},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"not found", fmt.Errorf("post %w", ErrNotFound), http.StatusNotFound},
		{"upstream", ErrUpstream, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: connection refused"))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Message)
}

func TestTokenErrorsShareOneMessage(t *testing.T) {
	var messages []string
	for _, err := range []error{ErrMissingToken, ErrInvalidToken, ErrTokenExpired} {
		rec := httptest.NewRecorder()
		RespondError(rec, err)
		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		messages = append(messages, resp.Message)
	}
	assert.Equal(t, messages[0], messages[1])
	assert.Equal(t, messages[1], messages[2])
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"alice"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "alice", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	assert.ErrorIs(t, DecodeJSON(req, &dst), ErrValidation)
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, DefaultPageSize},
		{"?page=3&limit=10", 3, 10},
		{"?page=-1&limit=0", 1, DefaultPageSize},
		{"?limit=500", 1, MaxPageSize},
		{"?page=abc&limit=xyz", 1, DefaultPageSize},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			page, limit := PageParams(req)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantLimit, limit)
		})
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	assert.Equal(t, int64(3), p.TotalPages)
	assert.Equal(t, int64(45), p.Total)

	exact := NewPagination(1, 20, 40)
	assert.Equal(t, int64(2), exact.TotalPages)

	empty := NewPagination(1, 20, 0)
	assert.Equal(t, int64(0), empty.TotalPages)
}
