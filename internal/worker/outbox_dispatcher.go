// Package worker hosts the background loops of the gateway.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/ficmart/charge-gateway/internal/application"
	"github.com/ficmart/charge-gateway/internal/config"
	"github.com/ficmart/charge-gateway/internal/domain"
	"github.com/ficmart/charge-gateway/internal/infrastructure/persistence/postgres"
	"github.com/jackc/pgx/v5"
)

// OutboxDispatcher drains outbox_events to the message bus.
//
// Each tick claims a batch with FOR UPDATE SKIP LOCKED, publishes events
// sequentially, and persists the resulting transitions before committing.
// The row locks stay held for the whole batch, so concurrently running
// dispatcher instances always work on disjoint rows. Failed events retry
// with exponential backoff and move to DEAD once the attempt budget is
// spent.
type OutboxDispatcher struct {
	tc         *postgres.TransactionCoordinator
	outboxRepo *postgres.OutboxRepository
	publisher  application.EventPublisher
	cfg        config.OutboxConfig
	logger     *slog.Logger
}

// BatchStats summarizes one dispatcher tick.
type BatchStats struct {
	Sent  int
	Retry int
	Dead  int
}

func NewOutboxDispatcher(
	tc *postgres.TransactionCoordinator,
	outboxRepo *postgres.OutboxRepository,
	publisher application.EventPublisher,
	cfg config.OutboxConfig,
	logger *slog.Logger,
) *OutboxDispatcher {
	return &OutboxDispatcher{
		tc:         tc,
		outboxRepo: outboxRepo,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start runs the dispatch loop until the context is cancelled.
func (d *OutboxDispatcher) Start(ctx context.Context) {
	d.logger.Info("outbox dispatcher started",
		"interval", d.cfg.PublishInterval,
		"batch_size", d.cfg.BatchSize,
		"topic", d.cfg.Topic,
	)
	ticker := time.NewTicker(d.cfg.PublishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopping")
			return
		case <-ticker.C:
			if _, err := d.PublishBatch(ctx); err != nil {
				d.logger.Error("outbox batch failed", "error", err)
			}
		}
	}
}

// PublishBatch claims and publishes one batch of pending events. Exported so
// tests can drive single ticks.
func (d *OutboxDispatcher) PublishBatch(ctx context.Context) (BatchStats, error) {
	var stats BatchStats

	err := d.tc.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		batch, err := d.outboxRepo.LockNextBatch(ctx, tx,
			[]domain.OutboxStatus{domain.OutboxNew, domain.OutboxRetry},
			time.Now().UTC(),
			d.cfg.BatchSize,
		)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		for _, e := range batch {
			d.dispatch(ctx, e, &stats)

			if err := d.outboxRepo.Update(ctx, tx, e); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return stats, err
	}

	if stats.Sent+stats.Retry+stats.Dead > 0 {
		d.logger.Info("outbox publish batch done",
			"sent", stats.Sent,
			"retry", stats.Retry,
			"dead", stats.Dead,
			"topic", d.cfg.Topic,
		)
	}

	return stats, nil
}

// dispatch publishes a single event and applies the status transition. A bad
// event never fails the batch; it is recorded in last_error and either
// rescheduled or dead-lettered.
func (d *OutboxDispatcher) dispatch(ctx context.Context, e *domain.OutboxEvent, stats *BatchStats) {
	publishCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	err := d.publisher.Publish(publishCtx, d.cfg.Topic, e.EventKey, []byte(e.Payload))
	cancel()

	if err == nil {
		e.MarkSent()
		stats.Sent++
		return
	}

	errMsg := truncateError(err, 2000)

	if e.AttemptCount+1 >= d.cfg.MaxAttempts {
		e.MarkDead(errMsg)
		stats.Dead++
		d.logger.Error("outbox event moved to DEAD",
			"event_id", e.ID,
			"attempts", e.AttemptCount,
			"error", errMsg,
		)
		return
	}

	backoff := PublishBackoff(d.cfg.BaseBackoff, d.cfg.MaxBackoff, e.AttemptCount+1)
	e.MarkRetry(errMsg, backoff)
	stats.Retry++
	d.logger.Warn("outbox event publish failed",
		"event_id", e.ID,
		"attempt", e.AttemptCount,
		"next_attempt_at", e.NextAttemptAt,
		"error", errMsg,
	)
}

func truncateError(err error, limit int) string {
	msg := err.Error()
	if len(msg) > limit {
		return msg[:limit]
	}
	return msg
}
