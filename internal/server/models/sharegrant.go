package models

import "time"

// ShareGrant gives TargetUserID read access to the file owned by
// OwnerUserID. Grants are created by the owner and never mutated.
type ShareGrant struct {
	TargetUserID string
	FileID       string
	OwnerUserID  string
	SharedAt     time.Time
}

// SharedFile is a grant joined with the referenced file metadata, as shown
// in the "shared with me" listing.
type SharedFile struct {
	FileID      string
	Filename    string
	OwnerUserID string
	Status      FileStatus
	SharedAt    time.Time
	CreatedAt   time.Time
}
