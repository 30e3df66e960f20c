package sharegrants

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Repository stores read-access grants keyed by (targetUserID, fileID).
// Grants are created by file owners and never mutated.
type Repository interface {
	// Create inserts a grant. Re-sharing the same file with the same target
	// is a no-op.
	Create(ctx context.Context, grant *models.ShareGrant) error

	// Find returns the grant for (targetUserID, fileID) or common.ErrorNotFound.
	Find(ctx context.Context, targetUserID, fileID string) (*models.ShareGrant, error)

	// SelectSharedWith lists grants for targetUserID joined with the
	// referenced file metadata. Dangling grants (no matching record) are
	// not returned.
	SelectSharedWith(ctx context.Context, targetUserID string) ([]*models.SharedFile, error)
}
