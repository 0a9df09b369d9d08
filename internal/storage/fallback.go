package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// fallbackStore tries the primary store and falls back to the secondary one.
type fallbackStore struct {
	primary   Store
	secondary Store
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that writes to primary and, if that is nil
// or fails, to secondary.
func NewFallbackStore(primary, secondary Store, logger zerolog.Logger) Store {
	return &fallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-store").Logger(),
	}
}

// Put buffers body so it can be replayed to the secondary store.
func (s *fallbackStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if s.primary == nil {
		s.logger.Debug().Msg("primary store not configured, using local file system")
		return s.secondary.Put(ctx, key, contentType, body)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	url, err := s.primary.Put(ctx, key, contentType, bytes.NewReader(data))
	if err == nil {
		return url, nil
	}

	s.logger.Warn().
		Err(err).
		Str("key", key).
		Msg("failed to store in primary store, falling back to local file system")

	return s.secondary.Put(ctx, key, contentType, bytes.NewReader(data))
}
