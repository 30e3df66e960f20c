package quotas

import "context"

// Repository is the per-user byte ledger. Reserve and Adjust are the only
// operations that move used_bytes; both execute as single conditional
// statements so concurrent callers serialize on the row.
type Repository interface {
	// Get returns the current used bytes for userID, or common.ErrorNotFound
	// when no ledger row exists yet.
	Get(ctx context.Context, userID string) (int64, error)

	// Reserve atomically adds delta to the user's used bytes, creating the
	// row lazily, provided the result does not exceed maxQuota. Returns the
	// new total, or common.ErrQuotaExceeded when the server-side condition
	// fails (including losing a race to a concurrent reservation).
	Reserve(ctx context.Context, userID string, delta, maxQuota int64) (int64, error)

	// Adjust applies a correction (delta may be negative) unconditionally,
	// flooring the result at zero. It is not an admission decision and must
	// not fail on over-quota totals.
	Adjust(ctx context.Context, userID string, delta int64) (int64, error)
}
