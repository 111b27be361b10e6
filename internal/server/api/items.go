package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tristanduncombe/DECO3500/internal/fingerprint"
	"github.com/tristanduncombe/DECO3500/internal/store"
	"github.com/tristanduncombe/DECO3500/internal/vault"
)

// maxUploadSize bounds a multipart request: four photos at phone camera
// resolution fit comfortably.
const maxUploadSize = 32 << 20

// ItemsHandler handles HTTP requests for inventory items.
type ItemsHandler struct {
	vault *vault.Vault
}

// NewItemsHandler creates a new ItemsHandler over the given vault.
func NewItemsHandler(v *vault.Vault) *ItemsHandler {
	return &ItemsHandler{vault: v}
}

// Request and response types

type itemSummaryResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Thumbnail string `json:"thumbnail"`
}

type listItemsResponse struct {
	Items []itemSummaryResponse `json:"items"`
}

type createItemResponse struct {
	ID              string `json:"id"`
	Item            string `json:"item"`
	UnlockExpiresAt string `json:"unlock_expires_at"`
}

type unlockResponse struct {
	Success         bool       `json:"success"`
	Item            string     `json:"item,omitempty"`
	UnlockExpiresAt string     `json:"unlock_expires_at,omitempty"`
	Scores          [3]float64 `json:"scores"`
}

// readFormFile reads a single multipart file field into memory.
func readFormFile(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing file field %q", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("reading %q: %w", field, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("file field %q is empty", field)
	}
	return data, header.Filename, nil
}

// readPhotoSequence reads the three numbered photo fields of a password
// or attempt upload.
func readPhotoSequence(r *http.Request, prefix string) ([fingerprint.SequenceLen][]byte, error) {
	var photos [fingerprint.SequenceLen][]byte
	for i := range photos {
		data, _, err := readFormFile(r, fmt.Sprintf("%s_%d", prefix, i+1))
		if err != nil {
			return photos, err
		}
		photos[i] = data
	}
	return photos, nil
}

// List handles GET /api/inventory/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.vault.ListItems()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items")
		return
	}

	response := listItemsResponse{
		Items: make([]itemSummaryResponse, 0, len(summaries)),
	}
	for _, s := range summaries {
		response.Items = append(response.Items, itemSummaryResponse{
			ID:        s.ID,
			Label:     s.Label,
			Thumbnail: s.Thumbnail,
		})
	}

	WriteJSON(w, http.StatusOK, response)
}

// Create handles POST /api/inventory/items: a multipart upload with the
// item label, the person photo, and the three password photos.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	label := r.FormValue("item")
	if label == "" {
		writeError(w, http.StatusBadRequest, "item is required")
		return
	}

	personImage, personImageName, err := readFormFile(r, "person_image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	passwordPhotos, err := readPhotoSequence(r, "password_image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, expiresAt, err := h.vault.AddItem(r.Context(), label, personImage, personImageName, passwordPhotos)
	if err != nil {
		var extractionErr *vault.ExtractionError
		if errors.As(err, &extractionErr) {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Password photo %d has no usable pose", extractionErr.Photo))
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to add item")
		return
	}

	WriteJSON(w, http.StatusCreated, createItemResponse{
		ID:              item.ID,
		Item:            item.Label,
		UnlockExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// Unlock handles POST /api/inventory/items/{id}/unlock: a multipart
// upload with the three attempt photos.
func (h *ItemsHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	attemptPhotos, err := readPhotoSequence(r, "attempt_image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.vault.AttemptUnlock(r.Context(), id, attemptPhotos)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Item not found")
			return
		}
		var extractionErr *vault.ExtractionError
		if errors.As(err, &extractionErr) {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Attempt photo %d has no usable pose", extractionErr.Photo))
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to attempt unlock")
		return
	}

	response := unlockResponse{
		Success: result.Success,
		Scores:  result.Scores,
	}
	if result.Success {
		response.Item = result.ItemLabel
		response.UnlockExpiresAt = result.ExpiresAt.Format(time.RFC3339)
	}

	WriteJSON(w, http.StatusOK, response)
}
