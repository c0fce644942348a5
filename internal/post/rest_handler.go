package post

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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	var req struct {
		Content string   `json:"content"`
		Images  []string `json:"images"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	p, err := h.service.CreatePost(r.Context(), u, req.Content, req.Images)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusCreated, infrastructure.Response{
		Success: true,
		Message: "Post created successfully",
		Data:    p,
	})
}

func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	page, limit := infrastructure.PageParams(r)
	posts, total, err := h.service.Feed(r.Context(), u, page, limit)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusOK, infrastructure.Response{
		Success:    true,
		Data:       posts,
		Pagination: infrastructure.NewPagination(page, limit, total),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathObjectID(r, "postId")
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	p, err := h.service.GetPost(r.Context(), id, viewerID(r))
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	id, err := pathObjectID(r, "postId")
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	if err := h.service.DeletePost(r.Context(), u, id); err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondMessage(w, http.StatusOK, "Post deleted successfully")
}

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	id, err := pathObjectID(r, "postId")
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	result, err := h.service.ToggleLike(r.Context(), u, id)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}
	infrastructure.RespondData(w, http.StatusOK, result)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		infrastructure.RespondError(w, infrastructure.ErrUnauthenticated)
		return
	}

	id, err := pathObjectID(r, "postId")
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	var req struct {
		Content       string              `json:"content"`
		ParentComment *primitive.ObjectID `json:"parentComment"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	c, err := h.service.AddComment(r.Context(), u, id, req.Content, req.ParentComment)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusCreated, infrastructure.Response{
		Success: true,
		Message: "Comment added successfully",
		Data:    c,
	})
}

func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	id, err := pathObjectID(r, "postId")
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	page, limit := infrastructure.PageParams(r)
	comments, total, err := h.service.Comments(r.Context(), id, page, limit)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusOK, infrastructure.Response{
		Success:    true,
		Data:       comments,
		Pagination: infrastructure.NewPagination(page, limit, total),
	})
}

func (h *Handler) ByHashtag(w http.ResponseWriter, r *http.Request) {
	page, limit := infrastructure.PageParams(r)

	posts, total, err := h.service.PostsByHashtag(r.Context(), mux.Vars(r)["tag"], page, limit, viewerID(r))
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusOK, infrastructure.Response{
		Success:    true,
		Data:       posts,
		Pagination: infrastructure.NewPagination(page, limit, total),
	})
}

func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	page, limit := infrastructure.PageParams(r)

	posts, total, err := h.service.PostsByUsername(r.Context(), mux.Vars(r)["username"], page, limit, viewerID(r))
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondJSON(w, http.StatusOK, infrastructure.Response{
		Success:    true,
		Data:       posts,
		Pagination: infrastructure.NewPagination(page, limit, total),
	})
}

func viewerID(r *http.Request) *primitive.ObjectID {
	if u, ok := user.FromContext(r.Context()); ok {
		return &u.ID
	}
	return nil
}

func pathObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, infrastructure.ErrValidation
	}
	return id, nil
}
