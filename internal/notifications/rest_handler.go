package notifications

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
	"torilynq/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	page, limit := infrastructure.PageParams(r)

	list, total, err := h.service.List(r.Context(), u.ID, unreadOnly, page, limit)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusOK, infrastructure.Response{
		Success:    true,
		Data:       list,
		Pagination: infrastructure.NewPagination(page, limit, total),
	})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), u.ID)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, map[string]int64{"unreadCount": count})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		infrastructure.RespondError(w, infrastructure.ErrValidation)
		return
	}

	if err := h.service.MarkRead(r.Context(), id, u.ID); err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondMessage(w, http.StatusOK, "Notification marked as read")
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	count, err := h.service.MarkAllRead(r.Context(), u.ID)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, map[string]int64{"markedRead": count})
}
