package media

import (
	"fmt"
	"net/http"

	"torilynq/infrastructure"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Upload accepts a multipart form with a single "file" part. The upload
// category comes from the query string and decides the size limit.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = CategoryPost
	}

	limit, err := MaxSize(category)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	// One extra byte so oversized bodies fail the size check instead of
	// silently truncating.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1)
	if err := r.ParseMultipartForm(limit); err != nil {
		infrastructure.RespondError(w, fmt.Errorf("%w: file exceeds the %dMB limit", infrastructure.ErrValidation, limit>>20))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		infrastructure.RespondError(w, fmt.Errorf("%w: please attach a file", infrastructure.ErrValidation))
		return
	}
	defer file.Close()

	url, err := h.store.Upload(r.Context(), category, header.Filename, file, header.Size)
	if err != nil {
		infrastructure.RespondError(w, err)
		return
	}

	infrastructure.RespondData(w, http.StatusCreated, map[string]string{"url": url})
}
