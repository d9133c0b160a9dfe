// Package reliability holds report archival and cache database upkeep.
package reliability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
)

// Uploader is the subset of manager.Uploader the archive needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ReportArchive stores finished analytics reports as JSON objects in S3-compatible storage.
// A nil *ReportArchive or one without an uploader is a no-op.
type ReportArchive struct {
	uploader Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewReportArchive creates an archive over an existing uploader.
func NewReportArchive(uploader Uploader, bucket, prefix string, log zerolog.Logger) *ReportArchive {
	return &ReportArchive{
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("component", "report_archive").Logger(),
	}
}

// NewS3Archive builds an archive from configuration. It returns a disabled archive when no
// bucket is configured.
func NewS3Archive(ctx context.Context, cfg config.ArchiveConfig, log zerolog.Logger) (*ReportArchive, error) {
	if !cfg.Enabled() {
		return NewReportArchive(nil, "", "", log), nil
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewReportArchive(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, log), nil
}

// Enabled reports whether uploads will happen.
func (a *ReportArchive) Enabled() bool {
	return a != nil && a.uploader != nil && a.bucket != ""
}

// Key returns the object key for a report created at createdAt.
func (a *ReportArchive) Key(id string, createdAt time.Time) string {
	return path.Join(a.prefix, createdAt.UTC().Format("2006/01/02"), id+".json")
}

// Archive uploads report as JSON and returns the object key. Disabled archives return "".
func (a *ReportArchive) Archive(ctx context.Context, id string, createdAt time.Time, report interface{}) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	key := a.Key(id, createdAt)
	start := time.Now()
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", id, err)
	}

	a.log.Info().
		Str("key", key).
		Int("size_bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Report archived")

	return key, nil
}
