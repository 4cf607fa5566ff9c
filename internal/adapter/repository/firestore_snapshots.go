package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"disputedesk/internal/domain/repository"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/logger"
)

// snapshotPump feeds a Subscription from a Firestore live query. Each
// snapshot is decoded in full; the iterator is stopped when the subscription
// ends for any reason.
func snapshotPump[T any](q firestore.Query, source string, decode func([]*firestore.DocumentSnapshot) T) repository.Pump[T] {
	return func(ctx context.Context, emit func(T) bool) error {
		it := q.Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || err == iterator.Done || status.Code(err) == codes.Canceled {
					return nil
				}
				logger.Error("Snapshot listener for %s failed: %v", source, err)
				return errors.Listener(source, err)
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return errors.Listener(source, err)
			}

			if !emit(decode(docs)) {
				return nil
			}
		}
	}
}
