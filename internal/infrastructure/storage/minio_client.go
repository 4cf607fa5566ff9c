package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"disputedesk/pkg/errors"
)

// MinIOClient stores attachments in an S3-compatible bucket. Used for local
// development and self-hosted deployments.
type MinIOClient struct {
	client     *minio.Client
	bucketName string
	baseURL    string
}

func NewMinIOClient(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOClient, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %v", bucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %v", bucketName, err)
		}
	}

	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	return &MinIOClient{
		client:     client,
		bucketName: bucketName,
		baseURL:    fmt.Sprintf("%s://%s/%s", scheme, strings.TrimRight(endpoint, "/"), bucketName),
	}, nil
}

// UploadObject needs the real size: with -1 the client falls back to a
// multipart stream that buffers a full maximum-size part in memory.
func (c *MinIOClient) UploadObject(ctx context.Context, r io.Reader, size int64, contentType, objectName string) (string, error) {
	if size < 0 {
		return "", errors.UploadFailed(fmt.Errorf("unknown size for %s", objectName))
	}
	_, err := c.client.PutObject(ctx, c.bucketName, objectName, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return "", errors.UploadFailed(err)
	}
	return c.objectURL(objectName), nil
}

func (c *MinIOClient) objectURL(objectName string) string {
	segments := strings.Split(objectName, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(segments, "/")
}

func (c *MinIOClient) Close() error {
	return nil
}
