// Package objectstore wraps the bulk storage collaborator: time-boxed
// presigned upload/download credentials and point lookups of stored-object
// ground truth (size and content digest).
package objectstore

import (
	"context"
	"time"
)

// ObjectInfo is the ground truth reported by the store for one key.
type ObjectInfo struct {
	SizeBytes int64
	// Checksum is the store's content digest (S3 ETag with quotes stripped).
	Checksum string
}

// Client is the object-store interface consumed by the services.
type Client interface {
	// PresignPut returns a single-target, time-boxed upload URL for key.
	PresignPut(ctx context.Context, key string, expires time.Duration) (string, error)

	// PresignGet returns a time-boxed download URL for key.
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)

	// Stat looks up size and checksum for key. Missing objects and
	// transient fetch failures both surface as errors; the caller decides
	// what that means for the record.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
}
