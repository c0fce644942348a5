package infrastructure

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// DecodeJSON reads a JSON request body; a malformed body is a validation
// error, never a 500.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ErrValidation
	}
	return nil
}

// Response is the envelope every endpoint returns.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
	Total      int64 `json:"total"`
}

func NewPagination(page, limit int, total int64) *Pagination {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return &Pagination{Page: page, Limit: limit, TotalPages: totalPages, Total: total}
}

func RespondJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func RespondData(w http.ResponseWriter, status int, data interface{}) {
	RespondJSON(w, status, Response{Success: true, Data: data})
}

func RespondMessage(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, Response{Success: true, Message: message})
}

// RespondError maps the error taxonomy onto HTTP status codes. Unknown errors
// are logged and surfaced as a generic 500 so internals never leak to clients.
func RespondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrDuplicateUsername), errors.Is(err, ErrDuplicateEmail):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		status, message = http.StatusUnauthorized, "not authorized, token is invalid or expired"
	case errors.Is(err, ErrUnauthenticated):
		status, message = http.StatusUnauthorized, "not authorized to access this route, please login"
	case errors.Is(err, ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, ErrUpstream):
		status, message = http.StatusInternalServerError, err.Error()
	default:
		slog.Error("unexpected error", "error", err)
	}

	RespondJSON(w, status, Response{Success: false, Message: message})
}
