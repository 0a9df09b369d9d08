package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// putObjectAPI is the part of the S3 client the store needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Store implements Store on an S3 bucket.
type s3Store struct {
	client     putObjectAPI
	bucket     string
	prefix     string
	publicBase string
	logger     zerolog.Logger
}

// NewS3Store creates an S3-backed store. When publicBase is empty, URLs use
// the bucket's virtual-hosted address.
func NewS3Store(ctx context.Context, bucket, region, prefix, publicBase string, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-store").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 store initialised")

	return newS3Store(s3.NewFromConfig(cfg), bucket, prefix, publicBase, logger), nil
}

func newS3Store(client putObjectAPI, bucket, prefix, publicBase string, logger zerolog.Logger) *s3Store {
	return &s3Store{
		client:     client,
		bucket:     bucket,
		prefix:     prefix,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     logger,
	}
}

// Put uploads body under prefix+key.
func (s *s3Store) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	objectKey := s.prefix + key

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", objectKey).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, objectKey, err)
	}

	s.logger.Debug().Str("key", objectKey).Msg("object stored in S3")
	return s.publicBase + "/" + objectKey, nil
}
