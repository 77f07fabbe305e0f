package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ficmart/charge-gateway/internal/application"
	"github.com/ficmart/charge-gateway/internal/config"
	"github.com/ficmart/charge-gateway/internal/domain"
	"github.com/ficmart/charge-gateway/internal/infrastructure/persistence/postgres"
	"github.com/jackc/pgx/v5"
)

// errConcurrentWinner aborts the current transaction when a concurrent
// request committed first; the caller restarts the flow, which then sees the
// winner's record and replays.
var errConcurrentWinner = errors.New("concurrent request won the insert race")

// ChargeService is the idempotency coordinator for the charge operation.
//
// Per (scope, key) serialization is a two-phase barrier: a transaction-scoped
// advisory lock serializes callers before the idempotency row exists, and a
// FOR UPDATE row lock takes over once it does. Payment, outbox event and
// record completion commit atomically in one transaction.
type ChargeService struct {
	tc              *postgres.TransactionCoordinator
	paymentRepo     *postgres.PaymentRepository
	idempotencyRepo *postgres.IdempotencyRepository
	outboxRepo      *postgres.OutboxRepository
	processor       application.PaymentProcessor
	cache           application.ResponseCache
	cfg             config.IdempotencyConfig
	logger          *slog.Logger
}

func NewChargeService(
	tc *postgres.TransactionCoordinator,
	paymentRepo *postgres.PaymentRepository,
	idempotencyRepo *postgres.IdempotencyRepository,
	outboxRepo *postgres.OutboxRepository,
	processor application.PaymentProcessor,
	cache application.ResponseCache,
	cfg config.IdempotencyConfig,
	logger *slog.Logger,
) *ChargeService {
	return &ChargeService{
		tc:              tc,
		paymentRepo:     paymentRepo,
		idempotencyRepo: idempotencyRepo,
		outboxRepo:      outboxRepo,
		processor:       processor,
		cache:           cache,
		cfg:             cfg,
		logger:          logger,
	}
}

// Charge executes a charge idempotently. requestHash must be computed by the
// caller over cmd with ComputeRequestHash; the service never re-hashes.
func (s *ChargeService) Charge(ctx context.Context, idempotencyKey, requestHash string, cmd ChargeCommand) (*ChargeResult, error) {
	scope := s.cfg.Scope

	// Fast path: cache hit for a completed replay. The cache has no
	// correctness role; a miss or error falls through to the database.
	if cached, err := s.cache.Get(ctx, scope, idempotencyKey); err != nil {
		s.logger.Warn("response cache lookup failed", "key", idempotencyKey, "error", err)
	} else if cached != nil {
		if cached.RequestHash != requestHash {
			return nil, application.NewHashConflictError(idempotencyKey)
		}
		return &ChargeResult{
			HTTPStatus:   cached.HTTPStatus,
			ResponseBody: cached.ResponseBody,
			Replayed:     true,
		}, nil
	}

	// A lost insert race aborts the transaction; one restart is enough
	// because the second pass observes the winner's committed record.
	for attempt := 0; ; attempt++ {
		result, err := s.chargeWithDBLock(ctx, scope, idempotencyKey, requestHash, cmd)
		if err != nil {
			if errors.Is(err, errConcurrentWinner) && attempt == 0 {
				s.logger.Info("restarting charge after concurrent winner",
					"scope", scope,
					"key", idempotencyKey,
				)
				continue
			}
			if _, ok := application.IsServiceError(err); ok {
				return nil, err
			}
			return nil, application.NewInternalError(err)
		}

		s.putCache(ctx, scope, idempotencyKey, requestHash, result)
		return result, nil
	}
}

// chargeWithDBLock runs the coordinator algorithm in a single database
// transaction.
func (s *ChargeService) chargeWithDBLock(ctx context.Context, scope, key, requestHash string, cmd ChargeCommand) (*ChargeResult, error) {
	var result *ChargeResult

	err := s.tc.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := postgres.AcquireAdvisoryLock(ctx, tx, scope, key); err != nil {
			return err
		}

		rec, err := s.idempotencyRepo.FindForUpdate(ctx, tx, scope, key)
		if err != nil {
			return err
		}

		if rec != nil {
			if !rec.SameHash(requestHash) {
				return application.NewHashConflictError(key)
			}

			if rec.Status == domain.IdempotencyCompleted {
				result = &ChargeResult{
					HTTPStatus:   *rec.HTTPStatus,
					ResponseBody: *rec.ResponseBody,
					Replayed:     true,
				}
				return nil
			}

			// IN_PROGRESS: recover stale entries (process crash etc.).
			if !rec.IsStaleInProgress(s.cfg.StaleInProgressAfter) {
				// Non-stale IN_PROGRESS should not occur under the
				// advisory lock; return 409 to force a retry.
				return application.NewInProgressError(key)
			}

			s.logger.Warn("recovering stale in-progress idempotency record",
				"scope", scope,
				"key", key,
			)
			if err := s.idempotencyRepo.Touch(ctx, tx, rec.ID); err != nil {
				return err
			}

			// If the payment already committed (unique by idempotency_key),
			// complete the record from it instead of re-running.
			existing, err := s.paymentRepo.FindByIdempotencyKey(ctx, tx, key)
			if err != nil && !errors.Is(err, postgres.ErrPaymentNotFound) {
				return err
			}
			if existing != nil {
				body, err := marshalResponse(existing)
				if err != nil {
					return err
				}
				if err := s.idempotencyRepo.MarkCompleted(ctx, tx, rec.ID, http.StatusCreated, body, existing.ID); err != nil {
					return err
				}
				result = &ChargeResult{
					HTTPStatus:   http.StatusCreated,
					ResponseBody: body,
					Replayed:     true,
				}
				return nil
			}
			// Otherwise the record is ours to finish; fall through.
		}

		if rec == nil {
			rec = domain.NewInProgressRecord(scope, key, requestHash)
			if err := s.idempotencyRepo.InsertInProgress(ctx, tx, rec); err != nil {
				if errors.Is(err, postgres.ErrDuplicateRecord) {
					return errConcurrentWinner
				}
				return err
			}
		}

		result, err = s.executeCharge(ctx, tx, rec, key, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// executeCharge performs the business effect: authorize with the processor,
// persist the payment, stage the outbox event and complete the record, all on
// the caller's transaction.
func (s *ChargeService) executeCharge(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord, key string, cmd ChargeCommand) (*ChargeResult, error) {
	payment, err := s.processor.Authorize(ctx, key, application.AuthorizeRequest{
		CustomerID:         cmd.CustomerID,
		Amount:             cmd.Amount,
		Currency:           cmd.Currency,
		PaymentMethodToken: cmd.PaymentMethodToken,
		Description:        cmd.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("payment processor authorize: %w", err)
	}

	if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
		if errors.Is(err, postgres.ErrDuplicatePayment) {
			// A concurrent transaction committed a payment for this key;
			// restart and replay from its record.
			return nil, errConcurrentWinner
		}
		return nil, err
	}

	body, err := marshalResponse(payment)
	if err != nil {
		return nil, err
	}

	eventPayload, err := json.Marshal(domain.NewPaymentChargedEvent(payment))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize outbox payload: %w", err)
	}

	// event_key is the payment id so downstream partitioning groups
	// per-payment events.
	event := domain.NewOutboxEvent("Payment", payment.ID, "PaymentCharged", payment.ID, string(eventPayload))
	if err := s.outboxRepo.Insert(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := s.idempotencyRepo.MarkCompleted(ctx, tx, rec.ID, http.StatusCreated, body, payment.ID); err != nil {
		return nil, err
	}

	s.logger.Info("payment charged",
		"payment_id", payment.ID,
		"customer_id", payment.CustomerID,
		"amount", payment.Amount,
		"currency", payment.Currency,
	)

	return &ChargeResult{
		HTTPStatus:   http.StatusCreated,
		ResponseBody: body,
		Replayed:     false,
	}, nil
}

func (s *ChargeService) putCache(ctx context.Context, scope, key, requestHash string, result *ChargeResult) {
	err := s.cache.Put(ctx, scope, key, application.CachedResponse{
		RequestHash:  requestHash,
		HTTPStatus:   result.HTTPStatus,
		ResponseBody: result.ResponseBody,
	})
	if err != nil {
		s.logger.Warn("response cache write failed", "key", key, "error", err)
	}
}

func marshalResponse(p *domain.Payment) (string, error) {
	body, err := json.Marshal(PaymentResponseFrom(p))
	if err != nil {
		return "", fmt.Errorf("failed to serialize payment response: %w", err)
	}
	return string(body), nil
}
