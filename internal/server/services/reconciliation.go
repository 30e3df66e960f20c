package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/metrics"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// ObjectRef is the (owner, file) address recovered from an object key.
type ObjectRef struct {
	OwnerID  string
	FileID   string
	Filename string
}

// ParseObjectKey inverts BuildObjectKey. Keys that do not match the
// ownerID/fileID/filename layout belong to nothing we track.
func ParseObjectKey(key string) (*ObjectRef, error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, fmt.Errorf("invalid object key format: %q", key)
	}
	return &ObjectRef{OwnerID: parts[0], FileID: parts[1], Filename: parts[2]}, nil
}

// ReconciliationService consumes upload-completion notifications, re-derives
// ground truth from the object store, corrects the quota ledger and drives
// each record to its terminal state.
//
// Notifications are at-least-once and unordered. Idempotence comes from the
// conditional PENDING claim: the ledger correction and the ACTIVE transition
// commit in one database transaction, and a duplicate delivery loses the
// claim and changes nothing.
type ReconciliationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objectstore.Client
	logger      logging.Logger
}

func NewReconciliationService(db *sql.DB, m repomanager.RepositoryManager, store objectstore.Client, logger logging.Logger) *ReconciliationService {
	return &ReconciliationService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger.With("module", "reconciliation"),
	}
}

// Process handles one completion notification for objectKey.
//
// Unrecognized events (unparseable key, no matching record) are logged and
// dropped. A ground-truth lookup failure moves the record to CORRUPT with
// the lookup error as detail and leaves the ledger at its reserved value. A
// failure to commit the ACTIVE transition moves the record to CORRUPT with
// "metadata update failed". Reprocessing a record already in a terminal
// state is a no-op.
func (s *ReconciliationService) Process(ctx context.Context, objectKey string) error {

	ref, err := ParseObjectKey(objectKey)
	if err != nil {
		s.logger.Warn(ctx, "dropping unrecognized completion event", "objectKey", objectKey)
		metrics.Reconciliations.WithLabelValues(metrics.OutcomeDropped).Inc()
		return nil
	}

	fileRepo := s.repomanager.FileRecords(s.db)

	rec, err := fileRepo.Get(ctx, ref.FileID, ref.OwnerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "completion event for unknown file, dropping",
				"fileID", ref.FileID, "ownerID", ref.OwnerID)
			metrics.Reconciliations.WithLabelValues(metrics.OutcomeDropped).Inc()
			return nil
		}
		return fmt.Errorf("error loading file record: %w", err)
	}

	// Fast path for duplicate deliveries; the claim below re-checks under
	// the transaction.
	if rec.Status != models.FileStatusPending {
		s.logger.Info(ctx, "record already reconciled, skipping",
			"fileID", rec.FileID, "status", string(rec.Status))
		metrics.Reconciliations.WithLabelValues(metrics.OutcomeNoop).Inc()
		return nil
	}

	info, err := s.store.Stat(ctx, objectKey)
	if err != nil {
		// Without ground truth the sign and magnitude of any ledger
		// correction is unknown, so the ledger stays at its reserved value.
		detail := fmt.Sprintf("object lookup failed: %v", err)
		s.logger.Error(ctx, "ground truth lookup failed", "fileID", rec.FileID, "error", err.Error())
		return s.markCorrupt(ctx, ref, detail)
	}

	diff := info.SizeBytes - rec.DeclaredSizeBytes

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txFileRepo := s.repomanager.FileRecords(tx)
		txQuotaRepo := s.repomanager.Quotas(tx)

		// Claim the PENDING record first; losing the claim aborts the
		// transaction before the ledger moves.
		if err := txFileRepo.MarkActive(ctx, ref.FileID, ref.OwnerID, info.SizeBytes, info.Checksum); err != nil {
			return err
		}

		if diff != 0 {
			if _, err := txQuotaRepo.Adjust(ctx, ref.OwnerID, diff); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, common.ErrStateConflict) {
			// A concurrent delivery won the claim.
			s.logger.Info(ctx, "record claimed by concurrent reconciliation, skipping", "fileID", rec.FileID)
			metrics.Reconciliations.WithLabelValues(metrics.OutcomeNoop).Inc()
			return nil
		}
		s.logger.Error(ctx, "failed to commit reconciliation", "fileID", rec.FileID, "error", err.Error())
		return s.markCorrupt(ctx, ref, "metadata update failed")
	}

	metrics.Reconciliations.WithLabelValues(metrics.OutcomeActive).Inc()
	s.logger.Info(ctx, "file reconciled", "fileID", rec.FileID,
		"declaredSize", rec.DeclaredSizeBytes, "actualSize", info.SizeBytes, "diff", diff)
	return nil
}

func (s *ReconciliationService) markCorrupt(ctx context.Context, ref *ObjectRef, detail string) error {
	err := s.repomanager.FileRecords(s.db).MarkCorrupt(ctx, ref.FileID, ref.OwnerID, detail)
	if err != nil {
		if errors.Is(err, common.ErrStateConflict) {
			// Already terminal; nothing left to record.
			metrics.Reconciliations.WithLabelValues(metrics.OutcomeNoop).Inc()
			return nil
		}
		return fmt.Errorf("error marking record corrupt: %w", err)
	}
	metrics.Reconciliations.WithLabelValues(metrics.OutcomeCorrupt).Inc()
	return nil
}
