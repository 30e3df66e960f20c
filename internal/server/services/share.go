package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/metrics"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// ShareService lets file owners grant read access to other users.
type ShareService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewShareService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ShareService {
	return &ShareService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "share"),
	}
}

// Share grants targetUserID read access to ownerID's fileID. Only the owner
// can share, so a fileID the requester does not own comes back as
// common.ErrorNotFound rather than revealing whether it exists. Re-sharing
// with the same target is a no-op.
func (s *ShareService) Share(ctx context.Context, ownerID, fileID, targetUserID string) error {

	if targetUserID == "" {
		return fmt.Errorf("%w: targetUserId is required", common.ErrValidation)
	}

	if _, err := s.repomanager.FileRecords(s.db).Get(ctx, fileID, ownerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading file record: %w", err)
	}

	grant := &models.ShareGrant{
		TargetUserID: targetUserID,
		FileID:       fileID,
		OwnerUserID:  ownerID,
	}

	if err := s.repomanager.ShareGrants(s.db).Create(ctx, grant); err != nil {
		return fmt.Errorf("error creating share grant: %w", err)
	}

	metrics.SharesCreated.Inc()
	s.logger.Info(ctx, "file shared", "fileID", fileID, "ownerID", ownerID, "targetUserID", targetUserID)
	return nil
}

// ListShared returns the files shared with userID, newest grant first.
func (s *ShareService) ListShared(ctx context.Context, userID string) ([]*models.SharedFile, error) {
	files, err := s.repomanager.ShareGrants(s.db).SelectSharedWith(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing shared files: %w", err)
	}
	return files, nil
}
