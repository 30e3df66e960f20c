package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// AccessService answers "may this user read this file" and resolves the
// record behind the answer. Ownership and grants are the only two paths in.
type AccessService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAccessService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AccessService {
	return &AccessService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "access"),
	}
}

// Authorize returns the file record if requesterID owns fileID or holds a
// share grant for it. A requester with no grant gets common.ErrForbidden; a
// grant whose record has vanished gets common.ErrorNotFound.
func (s *AccessService) Authorize(ctx context.Context, requesterID, fileID string) (*models.FileRecord, error) {

	fileRepo := s.repomanager.FileRecords(s.db)

	rec, err := fileRepo.Get(ctx, fileID, requesterID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error loading file record: %w", err)
	}

	grant, err := s.repomanager.ShareGrants(s.db).Find(ctx, requesterID, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrForbidden
		}
		return nil, fmt.Errorf("error loading share grant: %w", err)
	}

	rec, err = fileRepo.Get(ctx, fileID, grant.OwnerUserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Grant outlived its record.
			s.logger.Warn(ctx, "dangling share grant",
				"fileID", fileID, "targetUserID", requesterID, "ownerUserID", grant.OwnerUserID)
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading shared file record: %w", err)
	}
	return rec, nil
}
