// Package sharegrants implements the share index over PostgreSQL.
package sharegrants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// PostgresRepository implements the share index over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the grant; a repeated share of the same file to the same
// target leaves the original grant (and its shared_at) untouched.
func (r *PostgresRepository) Create(ctx context.Context, grant *models.ShareGrant) error {
	query := `
		INSERT INTO share_grants (target_user_id, file_id, owner_user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (target_user_id, file_id) DO NOTHING;
	`
	_, err := r.db.ExecContext(ctx, query, grant.TargetUserID, grant.FileID, grant.OwnerUserID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the grant for (targetUserID, fileID).
func (r *PostgresRepository) Find(ctx context.Context, targetUserID, fileID string) (*models.ShareGrant, error) {
	query := `
		SELECT target_user_id, file_id, owner_user_id, shared_at
		FROM share_grants
		WHERE target_user_id=$1 AND file_id=$2
	`

	grant := &models.ShareGrant{}
	err := r.db.QueryRowContext(ctx, query, targetUserID, fileID).Scan(
		&grant.TargetUserID, &grant.FileID, &grant.OwnerUserID, &grant.SharedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select share grant: %w", err)
	}
	return grant, nil
}

// SelectSharedWith joins grants with file metadata for the listing view.
func (r *PostgresRepository) SelectSharedWith(ctx context.Context, targetUserID string) ([]*models.SharedFile, error) {
	query := `
		SELECT g.file_id, f.filename, g.owner_user_id, f.status, g.shared_at, f.created_at
		FROM share_grants g
		JOIN file_records f ON f.file_id = g.file_id AND f.owner_id = g.owner_user_id
		WHERE g.target_user_id=$1
		ORDER BY g.shared_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shared files: %w", err)
	}
	defer rows.Close()

	var result []*models.SharedFile
	for rows.Next() {
		var item models.SharedFile
		if err := rows.Scan(&item.FileID, &item.Filename, &item.OwnerUserID,
			&item.Status, &item.SharedAt, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
