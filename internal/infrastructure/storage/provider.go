package storage

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"disputedesk/internal/domain/service"
	"disputedesk/pkg/config"
)

// NewFileUploadService picks the blob backend named by cfg.StorageProvider.
func NewFileUploadService(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (service.FileUploadService, error) {
	switch cfg.StorageProvider {
	case config.StorageProviderGCS, "":
		client, err := NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.StorageProviderMinIO:
		client, err := NewMinIOClient(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.StorageBucket, cfg.MinIOUseSSL)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}
