package user

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"torilynq/infrastructure"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	page, limit := infrastructure.PageParams(r)

	profiles, total, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), page, limit)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusOK, infrastructure.Response{
		Success:    true,
		Data:       profiles,
		Pagination: infrastructure.NewPagination(page, limit, total),
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	var viewer *primitive.ObjectID
	if u, ok := FromContext(r.Context()); ok {
		viewer = &u.ID
	}

	profile, err := h.service.GetProfile(r.Context(), mux.Vars(r)["username"], viewer)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, profile)
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	h.toggleFollow(w, r, h.service.Follow)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.toggleFollow(w, r, h.service.Unfollow)
}

func (h *Handler) toggleFollow(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, follower, target primitive.ObjectID) (*FollowResult, error),
) {
	u, ok := FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	target, err := pathObjectID(r, "userId")
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	result, err := op(r.Context(), u.ID, target)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, result)
}

func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	h.listRelations(w, r, h.service.Followers)
}

func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	h.listRelations(w, r, h.service.Following)
}

func (h *Handler) listRelations(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id primitive.ObjectID, page, limit int) ([]Preview, int64, error),
) {
	id, err := pathObjectID(r, "userId")
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	page, limit := infrastructure.PageParams(r)
	previews, total, err := op(r.Context(), id, page, limit)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusOK, infrastructure.Response{
		Success:    true,
		Data:       previews,
		Pagination: infrastructure.NewPagination(page, limit, total),
	})
}

func pathObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, infrastructure.ErrValidation
	}
	return id, nil
}
