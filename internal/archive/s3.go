// Package archive keeps raw webhook payloads in S3 for replay and dispute
// handling.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/courier-webhooks/internal/config"
	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/pkg/logger"
)

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive writes each accepted payload to
// <prefix><courier>/<dedupe key>.json.
type S3Archive struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Archive creates an archive using the default AWS credential chain.
func NewS3Archive(ctx context.Context, cfg config.ArchiveConfig) (*S3Archive, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("archive enabled without archive.s3_bucket")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	logger.Info("payload archive enabled", "bucket", cfg.S3Bucket, "prefix", cfg.Prefix, "region", cfg.S3Region)
	return newS3Archive(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.Prefix), nil
}

func newS3Archive(client s3API, bucket, prefix string) *S3Archive {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a payload.
func (a *S3Archive) Key(courier domain.CourierCode, dedupeKey string) string {
	return a.prefix + string(courier) + "/" + dedupeKey + ".json"
}

// Archive uploads the raw body of ev. The bytes are stored unmodified.
func (a *S3Archive) Archive(ctx context.Context, dedupeKey string, ev domain.CanonicalEvent) error {
	key := a.Key(ev.CourierCode, dedupeKey)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(ev.RawPayload),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"tracking-number": ev.TrackingNumber,
			"event-type":      string(ev.EventType),
			"event-timestamp": ev.EventTimestamp.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload payload to s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}
