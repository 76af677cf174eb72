package handlers

import (
	"bytes"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bandchat/metrics"
	"bandchat/services"
)

type UploadHandler struct {
	svc      *services.UploadService
	maxBytes int64
}

func NewUploadHandler(s *services.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{svc: s, maxBytes: maxBytes}
}

// Upload accepts a multipart form with the file in field "file".
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// room for the multipart framing around the file
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+64<<10)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		respondWithError(w, "Invalid upload", "expected multipart form with a file field", http.StatusBadRequest)
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, "Invalid upload", "missing file field", http.StatusBadRequest)
		return
	}
	defer f.Close()

	ref, err := h.svc.Store(hdr.Filename, hdr.Header.Get("Content-Type"), f)
	if err != nil {
		respondWithServiceError(w, "Upload failed", err)
		return
	}
	metrics.UploadBytes.Observe(float64(ref.Size))
	respondWithStatus(w, http.StatusCreated, ref)
}

// Download serves the bytes stored under /api/uploads/{id}.
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	blob, err := h.svc.Open("uploads/" + chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, "Download failed", err)
		return
	}
	w.Header().Set("Content-Type", blob.Ref.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": blob.Ref.Name}))
	http.ServeContent(w, r, blob.Ref.Name, time.Time{}, bytes.NewReader(blob.Data))
}
