package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ficmart/charge-gateway/internal/domain"
	"github.com/jackc/pgx/v5"
)

const outboxColumns = `id, aggregate_type, aggregate_id, event_type, event_key, payload,
       status, attempt_count, next_attempt_at, last_error, created_at, updated_at, sent_at`

type OutboxRepository struct {
	db *DB
}

func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) executor(tx pgx.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db.Pool
}

// Insert persists a new event. Called inside the business transaction so the
// event commits atomically with the payment it describes.
func (r *OutboxRepository) Insert(ctx context.Context, tx pgx.Tx, e *domain.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (` + outboxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.executor(tx).Exec(ctx, query,
		e.ID, e.AggregateType, e.AggregateID, e.EventType, e.EventKey, e.Payload,
		string(e.Status), e.AttemptCount, e.NextAttemptAt, e.LastError,
		e.CreatedAt, e.UpdatedAt, e.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// LockNextBatch claims up to limit events ready for publishing, in created_at
// order, locking the returned rows for the rest of the transaction.
//
// SKIP LOCKED lets multiple dispatcher instances run concurrently: rows
// already claimed by another transaction are passed over instead of blocked
// on, so concurrent batches are always disjoint.
func (r *OutboxRepository) LockNextBatch(ctx context.Context, tx pgx.Tx, statuses []domain.OutboxStatus, now time.Time, limit int) ([]*domain.OutboxEvent, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM outbox_events
		WHERE status = ANY($1)
		  AND (next_attempt_at IS NULL OR next_attempt_at <= $2)
		ORDER BY created_at
		FOR UPDATE SKIP LOCKED
		LIMIT $3
	`

	strStatuses := make([]string, len(statuses))
	for i, s := range statuses {
		strStatuses[i] = string(s)
	}

	rows, err := r.executor(tx).Query(ctx, query, strStatuses, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to lock outbox batch: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.OutboxEvent, error) {
		var m OutboxEventModel
		err := row.Scan(
			&m.ID, &m.AggregateType, &m.AggregateID, &m.EventType, &m.EventKey, &m.Payload,
			&m.Status, &m.AttemptCount, &m.NextAttemptAt, &m.LastError,
			&m.CreatedAt, &m.UpdatedAt, &m.SentAt,
		)
		return toOutboxDomain(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan outbox batch: %w", err)
	}

	return events, nil
}

// Update persists a status transition for a claimed event.
func (r *OutboxRepository) Update(ctx context.Context, tx pgx.Tx, e *domain.OutboxEvent) error {
	query := `
		UPDATE outbox_events
		SET status = $1, attempt_count = $2, next_attempt_at = $3, last_error = $4,
		    updated_at = $5, sent_at = $6
		WHERE id = $7
	`

	tag, err := r.executor(tx).Exec(ctx, query,
		string(e.Status), e.AttemptCount, e.NextAttemptAt, e.LastError,
		e.UpdatedAt, e.SentAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outbox event %s not found", e.ID)
	}

	return nil
}

// FindByID loads a single event, mainly for tests and diagnostics.
func (r *OutboxRepository) FindByID(ctx context.Context, id string) (*domain.OutboxEvent, error) {
	query := `SELECT ` + outboxColumns + ` FROM outbox_events WHERE id = $1`

	var m OutboxEventModel
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.AggregateType, &m.AggregateID, &m.EventType, &m.EventKey, &m.Payload,
		&m.Status, &m.AttemptCount, &m.NextAttemptAt, &m.LastError,
		&m.CreatedAt, &m.UpdatedAt, &m.SentAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load outbox event: %w", err)
	}

	return toOutboxDomain(m), nil
}
