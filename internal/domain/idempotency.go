package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyStatus is the coordinator state for one (scope, key).
type IdempotencyStatus string

const (
	IdempotencyInProgress IdempotencyStatus = "IN_PROGRESS"
	IdempotencyCompleted  IdempotencyStatus = "COMPLETED"
)

// IdempotencyRecord stores the request hash and the final HTTP response for a
// specific API scope.
//
// Key rules:
//   - same (scope, key) + same request hash  => replay the stored response
//   - same (scope, key) + different hash     => conflict (409)
//
// The record moves IN_PROGRESS -> COMPLETED and is never deleted by the
// gateway. (scope, idempotency_key) carries a unique constraint.
type IdempotencyRecord struct {
	ID             string
	Scope          string
	IdempotencyKey string
	RequestHash    string
	Status         IdempotencyStatus
	HTTPStatus     *int
	ResponseBody   *string
	PaymentID      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewInProgressRecord creates a record for a first-time request.
func NewInProgressRecord(scope, key, requestHash string) *IdempotencyRecord {
	now := time.Now().UTC()
	return &IdempotencyRecord{
		ID:             uuid.New().String(),
		Scope:          scope,
		IdempotencyKey: key,
		RequestHash:    requestHash,
		Status:         IdempotencyInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Complete marks the record completed and stores the response for replays.
func (r *IdempotencyRecord) Complete(httpStatus int, responseBody string, paymentID string) {
	r.Status = IdempotencyCompleted
	r.HTTPStatus = &httpStatus
	r.ResponseBody = &responseBody
	r.PaymentID = &paymentID
	r.UpdatedAt = time.Now().UTC()
}

// Touch refreshes the updated timestamp, used when a later caller takes over a
// stale IN_PROGRESS record.
func (r *IdempotencyRecord) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// SameHash reports whether the stored request hash matches the incoming one.
func (r *IdempotencyRecord) SameHash(incomingHash string) bool {
	return r.RequestHash != "" && r.RequestHash == incomingHash
}

// IsStaleInProgress reports whether the record has been IN_PROGRESS longer
// than maxAge. A stale record means the owning process crashed mid-flight;
// the business effect is strictly transactional, so re-processing under the
// advisory lock is safe.
func (r *IdempotencyRecord) IsStaleInProgress(maxAge time.Duration) bool {
	if r.Status != IdempotencyInProgress {
		return false
	}
	ref := r.UpdatedAt
	if ref.IsZero() {
		ref = r.CreatedAt
	}
	return !ref.IsZero() && ref.Before(time.Now().Add(-maxAge))
}
