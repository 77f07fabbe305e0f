package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ficmart/charge-gateway/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateRecord signals that the (scope, idempotency_key) unique
// constraint fired: a concurrent transaction won the insert race.
var ErrDuplicateRecord = errors.New("idempotency record already exists")

const recordColumns = `id, scope, idempotency_key, request_hash, status,
       http_status, response_body, payment_id, created_at, updated_at`

type IdempotencyRepository struct {
	db *DB
}

func NewIdempotencyRepository(db *DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) executor(tx pgx.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db.Pool
}

// FindForUpdate returns the record for (scope, key) and holds a row-level
// write lock for the rest of the transaction. Returns (nil, nil) when the
// record does not exist.
func (r *IdempotencyRepository) FindForUpdate(ctx context.Context, tx pgx.Tx, scope, key string) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM idempotency_records
		WHERE scope = $1 AND idempotency_key = $2
		FOR UPDATE
	`

	var m IdempotencyRecordModel
	err := r.executor(tx).QueryRow(ctx, query, scope, key).Scan(
		&m.ID, &m.Scope, &m.IdempotencyKey, &m.RequestHash, &m.Status,
		&m.HTTPStatus, &m.ResponseBody, &m.PaymentID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load idempotency record: %w", err)
	}

	return toRecordDomain(m), nil
}

// InsertInProgress persists a fresh IN_PROGRESS record. Returns
// ErrDuplicateRecord when a concurrent insert won the (scope, key) race.
func (r *IdempotencyRepository) InsertInProgress(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error {
	query := `
		INSERT INTO idempotency_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.executor(tx).Exec(ctx, query,
		rec.ID, rec.Scope, rec.IdempotencyKey, rec.RequestHash, string(rec.Status),
		rec.HTTPStatus, rec.ResponseBody, rec.PaymentID, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateRecord
		}
		return fmt.Errorf("failed to insert idempotency record: %w", err)
	}

	return nil
}

// MarkCompleted transitions IN_PROGRESS -> COMPLETED, storing the response
// for replays. Idempotent on the same completion values.
func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, id string, httpStatus int, responseBody string, paymentID string) error {
	query := `
		UPDATE idempotency_records
		SET status = $1, http_status = $2, response_body = $3, payment_id = $4, updated_at = NOW()
		WHERE id = $5
	`

	tag, err := r.executor(tx).Exec(ctx, query,
		string(domain.IdempotencyCompleted), httpStatus, responseBody, paymentID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete idempotency record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("idempotency record %s not found", id)
	}

	return nil
}

// Touch refreshes updated_at, used when taking over a stale IN_PROGRESS
// record.
func (r *IdempotencyRepository) Touch(ctx context.Context, tx pgx.Tx, id string) error {
	query := `UPDATE idempotency_records SET updated_at = NOW() WHERE id = $1`

	if _, err := r.executor(tx).Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to touch idempotency record: %w", err)
	}
	return nil
}

// FindByScopeAndKey loads a record without locking. Used by tests and
// diagnostics; the charge path always goes through FindForUpdate.
func (r *IdempotencyRepository) FindByScopeAndKey(ctx context.Context, scope, key string) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM idempotency_records
		WHERE scope = $1 AND idempotency_key = $2
	`

	var m IdempotencyRecordModel
	err := r.db.Pool.QueryRow(ctx, query, scope, key).Scan(
		&m.ID, &m.Scope, &m.IdempotencyKey, &m.RequestHash, &m.Status,
		&m.HTTPStatus, &m.ResponseBody, &m.PaymentID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load idempotency record: %w", err)
	}

	return toRecordDomain(m), nil
}
