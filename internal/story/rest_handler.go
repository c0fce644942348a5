package story

import (
	"context"
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	var req struct {
		Image   string `json:"image"`
		Caption string `json:"caption"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	st, err := h.service.Create(r.Context(), u, req.Image, req.Caption)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusCreated, infrastructure.Response{
		Success: true,
		Message: "Story created successfully",
		Data:    st,
	})
}

func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	feed, err := h.service.Feed(r.Context(), u)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, feed)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.withStory(w, r, h.service.Get)
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	h.withStory(w, r, h.service.View)
}

func (h *Handler) withStory(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, viewer *user.User, id primitive.ObjectID) (*Story, error),
) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["storyId"])
	if err != nil {
		infrastructure.RespondError(w, infrastructure.ErrValidation)
		return
	}

	st, err := op(r.Context(), u, id)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, st)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["storyId"])
	if err != nil {
		infrastructure.RespondError(w, infrastructure.ErrValidation)
		return
	}

	if err := h.service.Delete(r.Context(), u, id); err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondMessage(w, http.StatusOK, "Story deleted successfully")
}
