// Package services implements the application services on top of the
// repositories and the object store: upload admission, completion
// reconciliation, authorization, sharing and download URL issuing.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	sc "github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/metrics"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// UploadTicket is what an admitted reservation hands back to the client:
// the new file id and a time-boxed URL to PUT the content to.
type UploadTicket struct {
	FileID    string
	UploadURL string
	ExpiresIn int64 // seconds
}

// ReservationService admits new uploads: it places a quota hold and creates
// the PENDING metadata record that the hold pays for.
type ReservationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objectstore.Client
	config      *sc.Config
	logger      logging.Logger

	newFileID func() string
}

func NewReservationService(db *sql.DB, m repomanager.RepositoryManager, store objectstore.Client, config *sc.Config, logger logging.Logger) *ReservationService {
	return &ReservationService{
		db:          db,
		repomanager: m,
		store:       store,
		config:      config,
		logger:      logger.With("module", "reservation"),
		newFileID:   func() string { return uuid.New().String() },
	}
}

// BuildObjectKey derives the storage key for a file deterministically, so a
// completion event for the key maps back to (owner, file) without a lookup.
func BuildObjectKey(ownerID, fileID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", ownerID, fileID, filename)
}

// Admit validates the request, reserves quota and creates the PENDING
// record. The reserve is a single conditional write re-checked server-side,
// so two concurrent admissions cannot jointly overcommit the quota; the
// loser gets common.ErrQuotaExceeded and nothing else happens.
//
// The reserve and the record insert are two separate statements by design:
// the hold must fail fast with no metadata side effects, and the record is
// created immediately after so the two never diverge except in the
// documented crash window between them.
func (s *ReservationService) Admit(ctx context.Context, userID, filename string, declaredSize int64) (*UploadTicket, error) {

	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", common.ErrValidation)
	}
	if declaredSize < 0 {
		return nil, fmt.Errorf("%w: sizeBytes must be non-negative", common.ErrValidation)
	}

	quotaRepo := s.repomanager.Quotas(s.db)

	// Cheap pre-read to reject obviously-over-quota requests before the
	// conditional write; the write re-evaluates the condition itself.
	used, err := quotaRepo.Get(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error reading quota: %w", err)
	}
	if used+declaredSize > s.config.MaxQuotaBytes {
		metrics.ReservationsRejected.Inc()
		return nil, common.ErrQuotaExceeded
	}

	if _, err := quotaRepo.Reserve(ctx, userID, declaredSize, s.config.MaxQuotaBytes); err != nil {
		if errors.Is(err, common.ErrQuotaExceeded) {
			metrics.ReservationsRejected.Inc()
			return nil, common.ErrQuotaExceeded
		}
		return nil, fmt.Errorf("error reserving quota: %w", err)
	}

	fileID := s.newFileID()
	objectKey := BuildObjectKey(userID, fileID, filename)

	rec := &models.FileRecord{
		FileID:            fileID,
		OwnerID:           userID,
		Filename:          filename,
		ObjectKey:         objectKey,
		DeclaredSizeBytes: declaredSize,
		Status:            models.FileStatusPending,
	}

	if err := s.repomanager.FileRecords(s.db).Create(ctx, rec); err != nil {
		// Best-effort refund so the observed failure does not leave a
		// quota hold with no record behind it. A crash before this line
		// is the documented permanent leak.
		if _, aerr := quotaRepo.Adjust(ctx, userID, -declaredSize); aerr != nil {
			s.logger.Error(ctx, "failed to refund reservation after record create failure",
				"userID", userID, "fileID", fileID, "error", aerr.Error())
		}
		return nil, fmt.Errorf("error creating file record: %w", err)
	}

	url, err := s.store.PresignPut(ctx, objectKey, s.config.UploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload url: %w", err)
	}

	metrics.ReservationsAdmitted.Inc()
	s.logger.Info(ctx, "upload admitted", "userID", userID, "fileID", fileID, "declaredSize", declaredSize)

	return &UploadTicket{
		FileID:    fileID,
		UploadURL: url,
		ExpiresIn: int64(s.config.UploadURLTTL.Seconds()),
	}, nil
}
