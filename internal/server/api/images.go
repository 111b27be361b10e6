package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tristanduncombe/DECO3500/internal/images"
)

// ImagesHandler serves stored person photos.
type ImagesHandler struct {
	images *images.Store
}

// NewImagesHandler creates a new ImagesHandler over the given store.
func NewImagesHandler(s *images.Store) *ImagesHandler {
	return &ImagesHandler{images: s}
}

// Get handles GET /api/images/{filename}.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.images.Path(filename)
	if err != nil {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}

	http.ServeFile(w, r, path)
}
