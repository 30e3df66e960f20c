// Package filerecords implements file metadata storage over PostgreSQL.
package filerecords

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new record. The caller sets Status; reservations always
// insert PENDING.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.FileRecord) error {
	query := `
		INSERT INTO file_records (file_id, owner_id, filename, object_key, declared_size_bytes, status)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.FileID, rec.OwnerID, rec.Filename, rec.ObjectKey, rec.DeclaredSizeBytes, rec.Status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// Get returns the record for (fileID, ownerID) or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error) {
	query := `
		SELECT file_id, owner_id, filename, object_key, declared_size_bytes,
		       actual_size_bytes, checksum, status, error_detail, created_at
		FROM file_records
		WHERE file_id=$1 AND owner_id=$2
	`

	rec := &models.FileRecord{}
	err := r.db.QueryRowContext(ctx, query, fileID, ownerID).Scan(
		&rec.FileID, &rec.OwnerID, &rec.Filename, &rec.ObjectKey, &rec.DeclaredSizeBytes,
		&rec.ActualSizeBytes, &rec.Checksum, &rec.Status, &rec.ErrorDetail, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file record: %w", err)
	}
	return rec, nil
}

// MarkActive claims the PENDING record and records ground truth. The status
// condition in the WHERE clause is what makes duplicate completion events
// no-ops: the second delivery affects zero rows.
func (r *PostgresRepository) MarkActive(ctx context.Context, fileID, ownerID string, actualSize int64, checksum string) error {
	query := `
		UPDATE file_records
		SET status=$1, actual_size_bytes=$2, checksum=$3
		WHERE file_id=$4 AND owner_id=$5 AND status=$6;
	`
	res, err := r.db.ExecContext(ctx, query,
		models.FileStatusActive, actualSize, checksum, fileID, ownerID, models.FileStatusPending)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowOrConflict(res)
}

// MarkCorrupt moves the PENDING record to its failure terminal state.
func (r *PostgresRepository) MarkCorrupt(ctx context.Context, fileID, ownerID, detail string) error {
	query := `
		UPDATE file_records
		SET status=$1, error_detail=$2
		WHERE file_id=$3 AND owner_id=$4 AND status=$5;
	`
	res, err := r.db.ExecContext(ctx, query,
		models.FileStatusCorrupt, detail, fileID, ownerID, models.FileStatusPending)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowOrConflict(res)
}

func oneRowOrConflict(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrStateConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
