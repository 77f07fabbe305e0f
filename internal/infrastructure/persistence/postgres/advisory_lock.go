package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// AdvisoryLockID derives the 64-bit lock id for a (scope, key) pair: the
// first 8 bytes of SHA-256(scope + "|" + key) interpreted as a signed
// integer. Deterministic across processes and restarts.
func AdvisoryLockID(scope, key string) int64 {
	sum := sha256.Sum256([]byte(scope + "|" + key))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// AcquireAdvisoryLock takes a transaction-scoped advisory lock for
// (scope, key), blocking until it is granted.
//
// Row locks only work once a row exists; during the first request for a key,
// concurrent callers would race to INSERT. pg_advisory_xact_lock serializes
// them even in that pre-row window. The lock is released automatically when
// the transaction ends, and re-acquiring it within the same transaction is a
// no-op.
func AcquireAdvisoryLock(ctx context.Context, tx pgx.Tx, scope, key string) error {
	lockID := AdvisoryLockID(scope, key)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", lockID); err != nil {
		return fmt.Errorf("failed to acquire advisory lock for %s|%s: %w", scope, key, err)
	}
	return nil
}
