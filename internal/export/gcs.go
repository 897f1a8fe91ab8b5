package export

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSUploader uploads to Google Cloud Storage.
type GCSUploader struct {
	client *storage.Client
}

// NewGCSUploader creates a GCS client. An empty keyFile falls back to
// application default credentials (or STORAGE_EMULATOR_HOST when set).
func NewGCSUploader(ctx context.Context, keyFile string) (*GCSUploader, error) {
	var opts []option.ClientOption
	if keyFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, keyFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSUploader{client: client}, nil
}

// Upload writes data to gs://bucket/key.
func (u *GCSUploader) Upload(ctx context.Context, bucket, key, contentType string, data []byte) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := u.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		cancel() // abandons the upload
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish gs://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// Close releases the underlying client.
func (u *GCSUploader) Close() error { return u.client.Close() }
