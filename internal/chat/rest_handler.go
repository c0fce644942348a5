package chat

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

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	var req struct {
		UserID string `json:"userId"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	other, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		infrastructure.RespondError(w, infrastructure.ErrValidation)
		return
	}

	c, err := h.service.Start(r.Context(), u, other)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, c)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	page, limit := infrastructure.PageParams(r)
	conversations, total, err := h.service.Conversations(r.Context(), u, page, limit)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusOK, infrastructure.Response{
		Success:    true,
		Data:       conversations,
		Pagination: infrastructure.NewPagination(page, limit, total),
	})
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	id, err := pathConversationID(r)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	page, limit := infrastructure.PageParams(r)
	messages, total, err := h.service.Messages(r.Context(), u, id, page, limit)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusOK, infrastructure.Response{
		Success:    true,
		Data:       messages,
		Pagination: infrastructure.NewPagination(page, limit, total),
	})
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	id, err := pathConversationID(r)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	var req struct {
		Content   string `json:"content"`
		Media     string `json:"media"`
		MediaType string `json:"mediaType"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	m, err := h.service.Send(r.Context(), u, id, req.Content, req.Media, req.MediaType)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusCreated, infrastructure.Response{
		Success: true,
		Message: "Message sent",
		Data:    m,
	})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	id, err := pathConversationID(r)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	count, err := h.service.MarkRead(r.Context(), u, id)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, map[string]int64{"markedRead": count})
}

func pathConversationID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["conversationId"])
	if err != nil {
		return primitive.NilObjectID, infrastructure.ErrValidation
	}
	return id, nil
}
