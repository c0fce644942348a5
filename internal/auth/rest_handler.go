package auth

import (
	"encoding/json"
	"net/http"

	"torilynq/infrastructure"
	"torilynq/internal/user"
	"torilynq/pkg/jwt"
)

type Handler struct {
	service    *Service
	tokens     *jwt.Service
	production bool
}

func NewHandler(service *Service, tokens *jwt.Service, production bool) *Handler {
	return &Handler{service: service, tokens: tokens, production: production}
}

type tokenResponse struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	User         user.PublicProfile `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	u, pair, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	h.sendTokens(w, http.StatusCreated, "User registered successfully", u, pair)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	u, pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	h.sendTokens(w, http.StatusOK, "Login successful", u, pair)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	u := MustUser(r.Context())

	if err := h.service.Logout(r.Context(), u.ID); err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	h.clearAuthCookies(w)
	infrastructure.RespondMessage(w, http.StatusOK, "Logout successful")
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u := MustUser(r.Context())

	current, err := h.service.Me(r.Context(), u.ID)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, current.PublicProfile())
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u := MustUser(r.Context())

	var req struct {
		Username *string `json:"username"`
		Bio      *string `json:"bio"`
		Avatar   *string `json:"avatar"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), u, UpdateProfileInput{
		Username: req.Username,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	})
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusOK, infrastructure.Response{
		Success: true,
		Message: "Profile updated successfully",
		Data:    updated.PublicProfile(),
	})
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	u := MustUser(r.Context())

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	updated, pair, err := h.service.UpdatePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	h.sendTokens(w, http.StatusOK, "Password updated successfully", updated, pair)
}

func (h *Handler) sendTokens(w http.ResponseWriter, status int, message string, u *user.User, pair *TokenPair) {
	h.setAuthCookies(w, pair)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(tokenResponse{
		Success:      true,
		Message:      message,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         u.PublicProfile(),
	})
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, pair *TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(h.tokens.AccessTokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.tokens.RefreshTokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.production,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
