package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"disputedesk/pkg/errors"
	"disputedesk/pkg/logger"
)

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	storageClient := &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}

	if err := storageClient.setBucketCORS(ctx); err != nil {
		logger.Warn("Failed to set CORS configuration on bucket %s: %v", bucketName, err)
	}

	return storageClient, nil
}

// setBucketCORS lets the dashboard open attachments directly from the bucket.
func (c *CloudStorageClient) setBucketCORS(ctx context.Context) error {
	bucket := c.client.Bucket(c.bucketName)

	attrs, err := bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %v", err)
	}
	if len(attrs.CORS) > 0 {
		return nil
	}

	_, err = bucket.Update(ctx, storage.BucketAttrsToUpdate{
		CORS: []storage.CORS{{
			MaxAge:          3600,
			Methods:         []string{"GET", "HEAD"},
			Origins:         []string{"*"},
			ResponseHeaders: []string{"Content-Type", "Content-Disposition"},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to update bucket CORS: %v", err)
	}
	return nil
}

// UploadObject writes r to objectName and makes it world readable, so the
// returned URL works for both chat participants without signing.
// A failed copy cancels the writer's context so the partial object is
// discarded instead of finalized.
func (c *CloudStorageClient) UploadObject(ctx context.Context, r io.Reader, size int64, contentType, objectName string) (string, error) {
	obj := c.client.Bucket(c.bucketName).Object(objectName)

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wc := obj.NewWriter(writeCtx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	n, err := io.Copy(wc, r)
	if err == nil && size >= 0 && n != size {
		err = fmt.Errorf("read %d of %d bytes", n, size)
	}
	if err != nil {
		cancel()
		_ = wc.Close()
		return "", errors.UploadFailed(fmt.Errorf("copy to GCS: %w", err))
	}
	if err := wc.Close(); err != nil {
		return "", errors.UploadFailed(fmt.Errorf("finalize GCS object: %w", err))
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", errors.UploadFailed(fmt.Errorf("set ACL: %w", err))
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, objectName), nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
