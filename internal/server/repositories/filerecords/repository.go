package filerecords

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Repository stores per-file metadata keyed by (fileID, ownerID).
//
// MarkActive and MarkCorrupt are the only writes after Create and both are
// conditional on status PENDING, so a record reaches exactly one terminal
// state no matter how many times completion events are delivered.
type Repository interface {
	Create(ctx context.Context, rec *models.FileRecord) error
	Get(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error)

	// MarkActive transitions PENDING -> ACTIVE, recording ground truth.
	// Returns common.ErrStateConflict when the record is no longer PENDING.
	MarkActive(ctx context.Context, fileID, ownerID string, actualSize int64, checksum string) error

	// MarkCorrupt transitions PENDING -> CORRUPT with a human-readable detail.
	// Returns common.ErrStateConflict when the record is no longer PENDING.
	MarkCorrupt(ctx context.Context, fileID, ownerID, detail string) error
}
