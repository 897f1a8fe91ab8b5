// Package export uploads snapshots of the CSV store to object storage
// (S3-compatible, Google Cloud Storage or Azure Blob Storage).
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"scouthub/internal/domain"
)

// Uploader writes one object. bucket is the S3/GCS bucket or Azure container.
type Uploader interface {
	Upload(ctx context.Context, bucket, key, contentType string, data []byte) error
}

// ObjectPutter is the part of the S3 client S3Uploader uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Snapshotter supplies a consistent copy of the CSV store.
// Implemented by csvsink.Sink.
type Snapshotter interface {
	Snapshot() ([]byte, error)
}

// S3Config locates an S3-compatible endpoint.
type S3Config struct {
	Endpoint string // host[:port] or full URL
	Region   string
	KeyID    string
	Secret   string
}

// NewS3Client builds a path-style S3 client for an S3-compatible endpoint.
func NewS3Client(cfg S3Config) *s3.Client {
	endpoint := cfg.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	return s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.Secret, ""),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})
}

// S3Uploader uploads with an S3 client.
type S3Uploader struct {
	client ObjectPutter
}

// NewS3Uploader wraps client.
func NewS3Uploader(client ObjectPutter) *S3Uploader {
	return &S3Uploader{client: client}
}

// Upload puts data at bucket/key.
func (u *S3Uploader) Upload(ctx context.Context, bucket, key, contentType string, data []byte) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	return err
}

// Exporter copies the CSV store to object storage.
type Exporter struct {
	source Snapshotter
	client Uploader
	bucket string
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

// NewExporter creates an exporter writing to bucket under prefix.
func NewExporter(source Snapshotter, client Uploader, bucket, prefix string, logger *slog.Logger) *Exporter {
	return &Exporter{
		source: source,
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
		logger: logger,
	}
}

// Export uploads the current CSV contents and returns the object key. It fails
// with NotFoundError when nothing has been written yet.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	data, err := e.source.Snapshot()
	if err != nil {
		return "", err
	}

	key := e.objectKey()
	if err := e.client.Upload(ctx, e.bucket, key, "text/csv", data); err != nil {
		return "", &domain.ServiceError{Service: "object storage", Err: fmt.Errorf("put %s/%s: %w", e.bucket, key, err)}
	}
	e.logger.Info("csv exported", "bucket", e.bucket, "key", key, "bytes", len(data))
	return key, nil
}

// Bucket returns the destination bucket.
func (e *Exporter) Bucket() string { return e.bucket }

func (e *Exporter) objectKey() string {
	return fmt.Sprintf("%s%s-%s.csv", e.prefix, e.now().UTC().Format("20060102-150405"), uuid.NewString())
}
