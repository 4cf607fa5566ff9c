package service

import (
	"context"
	"io"
)

// FileUploadService stores attachment blobs and returns a URL that chat
// participants can open. size is the exact byte count of r.
type FileUploadService interface {
	UploadObject(ctx context.Context, r io.Reader, size int64, contentType, objectName string) (string, error)
	Close() error
}
