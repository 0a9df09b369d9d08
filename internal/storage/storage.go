package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists uploaded files and returns their public URL.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// NewKey returns a unique object key for an upload named filename, grouped
// by upload month.
func NewKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("uploads", now.UTC().Format("2006/01"), uuid.NewString()+ext)
}
