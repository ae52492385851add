package s3

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mosajjal/ecs-events-to-slack/pkg/models"
	"github.com/mosajjal/ecs-events-to-slack/pkg/storage"
)

// PutObjectAPI is the subset of the S3 client used by the archive
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Storage archives inbound events to S3
type Storage struct {
	config    storage.Config
	client    PutObjectAPI
	bucket    string
	keyPrefix string
}

// NewStorage creates a new S3 archive backend
func NewStorage(cfg storage.Config, awsCfg aws.Config) (*Storage, error) {
	return NewStorageWithClient(cfg, s3.NewFromConfig(awsCfg))
}

// NewStorageWithClient creates an S3 archive backend with a custom client
func NewStorageWithClient(cfg storage.Config, client PutObjectAPI) (*Storage, error) {
	bucket, keyPrefix, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	return &Storage{
		config:    cfg,
		client:    client,
		bucket:    bucket,
		keyPrefix: keyPrefix,
	}, nil
}

// ParseURL extracts the bucket and key prefix from a virtual-hosted or path-style S3 URL
func ParseURL(raw string) (bucket, keyPrefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URL: %w", err)
	}

	if strings.Contains(u.Host, ".s3.") || strings.Contains(u.Host, ".s3-") {
		// bucket.s3.region.amazonaws.com/prefix
		bucket = strings.Split(u.Host, ".")[0]
		keyPrefix = strings.Trim(u.Path, "/")
	} else {
		// s3.region.amazonaws.com/bucket/prefix
		pathParts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
		bucket = pathParts[0]
		if len(pathParts) > 1 {
			keyPrefix = pathParts[1]
		}
	}

	if bucket == "" {
		return "", "", fmt.Errorf("could not parse bucket name from URL: %s", raw)
	}
	return bucket, keyPrefix, nil
}

// Store uploads one event, gzip-compressed unless compression is disabled
func (s *Storage) Store(ctx context.Context, record *models.ArchiveRecord) error {
	body := record.Payload
	ext := ".json"
	if s.config.CompressionType != "none" {
		var buf bytes.Buffer
		gz, _ := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if _, err := gz.Write(record.Payload); err != nil {
			return fmt.Errorf("failed to gzip event: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to gzip event: %w", err)
		}
		body = buf.Bytes()
		ext = ".json.gz"
	}

	key := objectKey(s.keyPrefix, record.Received, record.EventID, ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Debug().Str("bucket", s.bucket).Str("key", key).Msg("archived event")
	return nil
}

// Close cleans up resources
func (s *Storage) Close() error {
	return nil
}

// objectKey is prefix/year/month/day/hour/timestamp-id.ext
func objectKey(prefix string, t time.Time, eventID, ext string) string {
	t = t.UTC()
	if eventID == "" {
		eventID = uuid.New().String()
	}
	key := fmt.Sprintf("%d/%02d/%02d/%02d/%s-%s%s",
		t.Year(),
		t.Month(),
		t.Day(),
		t.Hour(),
		t.Format("2006-01-02T15:04:05.000Z"),
		eventID,
		ext,
	)
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
