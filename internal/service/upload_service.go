package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"farmart/internal/model"
	"farmart/internal/storage"

	"github.com/rs/zerolog"
)

type uploadService struct {
	store  storage.Store
	now    func() time.Time
	logger zerolog.Logger
}

// NewUploadService creates a new upload service.
func NewUploadService(store storage.Store, logger zerolog.Logger) UploadService {
	return &uploadService{
		store:  store,
		now:    time.Now,
		logger: logger.With().Str("service", "upload").Logger(),
	}
}

// uploadTypes maps the accepted sniffed content types to the extension the
// stored object gets.
var uploadTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Upload stores body under a fresh key and returns its public URL. The
// content type is sniffed from the first bytes; the client's claim is only
// logged.
func (s *uploadService) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if strings.TrimSpace(filename) == "" {
		v := model.NewValidationError()
		v.Add("file", "is required")
		return "", v
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	detected := http.DetectContentType(head)
	ext, ok := uploadTypes[detected]
	if !ok {
		s.logger.Warn().
			Str("filename", filename).
			Str("claimed_type", contentType).
			Str("detected_type", detected).
			Msg("upload type rejected")
		return "", model.ErrUnsupportedFileType
	}

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	key := storage.NewKey(base+ext, s.now())
	url, err := s.store.Put(ctx, key, detected, io.MultiReader(bytes.NewReader(head), body))
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to store upload")
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.Info().Str("key", key).Str("content_type", detected).Msg("file uploaded")
	return url, nil
}
