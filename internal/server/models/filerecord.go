// Package models defines server-side data models persisted in the database.
package models

import (
	"database/sql"
	"time"
)

// FileStatus is the lifecycle state of a FileRecord. The only transitions
// are PENDING -> ACTIVE and PENDING -> CORRUPT; both are terminal.
type FileStatus string

const (
	FileStatusPending FileStatus = "PENDING"
	FileStatusActive  FileStatus = "ACTIVE"
	FileStatusCorrupt FileStatus = "CORRUPT"
)

// FileRecord describes per-file metadata keyed by (FileID, OwnerID).
// The file content itself lives in object storage under ObjectKey.
type FileRecord struct {
	// FileID is generated at reservation time and globally unique.
	FileID string
	// OwnerID is the user the record belongs to. Nobody else writes it.
	OwnerID string

	Filename string
	// ObjectKey is the object-storage key, derived deterministically as
	// ownerID/fileID/filename so completion events map back without a lookup.
	ObjectKey string

	// DeclaredSizeBytes is what the client claimed at reservation time.
	DeclaredSizeBytes int64
	// ActualSizeBytes is set once reconciliation has observed ground truth.
	ActualSizeBytes sql.NullInt64
	// Checksum is the content digest reported by the object store.
	Checksum sql.NullString

	Status FileStatus
	// ErrorDetail is populated only when Status is CORRUPT.
	ErrorDetail sql.NullString

	CreatedAt time.Time
}
