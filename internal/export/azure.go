package export

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureUploader uploads block blobs with shared-key credentials.
type AzureUploader struct {
	client *azblob.Client
}

// NewAzureUploader creates a blob client for accountName. endpoint overrides
// the default https://<account>.blob.core.windows.net service URL.
func NewAzureUploader(accountName, accountKey, endpoint string) (*AzureUploader, error) {
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	return &AzureUploader{client: client}, nil
}

// Upload writes data as a block blob in container.
func (u *AzureUploader) Upload(ctx context.Context, container, key, contentType string, data []byte) error {
	_, err := u.client.UploadBuffer(ctx, container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", container, key, err)
	}
	return nil
}
