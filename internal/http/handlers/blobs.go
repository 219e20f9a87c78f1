package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"promptpix/internal/storage"
)

func (a *App) BlobGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, r, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	blob, err := a.Blobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found", "blob not found")
			return
		}
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to load blob")
		return
	}
	w.Header().Set("Content-Type", blob.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}
