// Package quotas implements the per-user quota ledger over PostgreSQL.
package quotas

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
)

// PostgresRepository implements the ledger over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns current used bytes for the user.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (int64, error) {
	query := `SELECT used_bytes FROM user_quotas WHERE user_id=$1`

	var used int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&used); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("failed to select quota: %w", err)
	}
	return used, nil
}

// Reserve performs the quota hold as one conditional upsert. The quota
// precondition is re-evaluated server-side at write time, so two concurrent
// reservations for the same user cannot jointly overcommit: the row update
// serializes them and the loser gets no row back.
func (r *PostgresRepository) Reserve(ctx context.Context, userID string, delta, maxQuota int64) (int64, error) {
	query := `
		INSERT INTO user_quotas (user_id, used_bytes)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET used_bytes = user_quotas.used_bytes + EXCLUDED.used_bytes
		WHERE user_quotas.used_bytes + EXCLUDED.used_bytes <= $3
		RETURNING used_bytes;
	`

	if delta > maxQuota {
		return 0, common.ErrQuotaExceeded
	}

	var used int64
	if err := r.db.QueryRowContext(ctx, query, userID, delta, maxQuota).Scan(&used); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// the conditional update declined the write
			return 0, common.ErrQuotaExceeded
		}
		return 0, fmt.Errorf("failed to reserve quota: %w", err)
	}
	return used, nil
}

// Adjust applies a reconciliation correction. The floor at zero covers
// refunds larger than the current total; there is no upper bound check.
func (r *PostgresRepository) Adjust(ctx context.Context, userID string, delta int64) (int64, error) {
	query := `
		INSERT INTO user_quotas (user_id, used_bytes)
		VALUES ($1, GREATEST($2, 0))
		ON CONFLICT (user_id)
		DO UPDATE SET used_bytes = GREATEST(user_quotas.used_bytes + $2, 0)
		RETURNING used_bytes;
	`

	var used int64
	if err := r.db.QueryRowContext(ctx, query, userID, delta).Scan(&used); err != nil {
		return 0, fmt.Errorf("failed to adjust quota: %w", err)
	}
	return used, nil
}
