package handler

import (
	"errors"
	"net/http"

	"farmart/internal/service"

	"github.com/rs/zerolog"
)

// UploadHandler accepts single-file multipart uploads.
type UploadHandler struct {
	service  service.UploadService
	maxBytes int64
	logger   zerolog.Logger
}

// NewUploadHandler creates an upload handler accepting files up to maxMB megabytes.
func NewUploadHandler(service service.UploadService, maxMB int, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service:  service,
		maxBytes: int64(maxMB) << 20,
		logger:   logger.With().Str("handler", "upload").Logger(),
	}
}

// Upload handles POST /api/uploads with a multipart "file" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		h.fail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	// The form limit only bounds memory; parts beyond it spill to disk.
	if header.Size > h.maxBytes {
		h.fail(w, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.service.Upload(r.Context(), header.Filename, contentType, file)
	if err != nil {
		writeEnvelopeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, URL: url})
}

func (h *UploadHandler) fail(w http.ResponseWriter, status int, message string) {
	h.logger.Warn().Int("status", status).Str("error", message).Msg("upload rejected")
	writeJSON(w, status, envelope{Message: message})
}
