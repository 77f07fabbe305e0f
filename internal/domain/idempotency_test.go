package domain_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/ficmart/charge-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInProgressRecord(t *testing.T) {
	rec := domain.NewInProgressRecord("payments:charge", "idem-123", "hash-abc")

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "payments:charge", rec.Scope)
	assert.Equal(t, "idem-123", rec.IdempotencyKey)
	assert.Equal(t, "hash-abc", rec.RequestHash)
	assert.Equal(t, domain.IdempotencyInProgress, rec.Status)
	assert.Nil(t, rec.HTTPStatus)
	assert.Nil(t, rec.ResponseBody)
	assert.Nil(t, rec.PaymentID)
}

func TestIdempotencyRecord_Complete(t *testing.T) {
	rec := domain.NewInProgressRecord("payments:charge", "idem-123", "hash-abc")
	before := rec.UpdatedAt

	rec.Complete(http.StatusCreated, `{"paymentId":"pay-1"}`, "pay-1")

	assert.Equal(t, domain.IdempotencyCompleted, rec.Status)
	require.NotNil(t, rec.HTTPStatus)
	assert.Equal(t, http.StatusCreated, *rec.HTTPStatus)
	require.NotNil(t, rec.ResponseBody)
	assert.Equal(t, `{"paymentId":"pay-1"}`, *rec.ResponseBody)
	require.NotNil(t, rec.PaymentID)
	assert.Equal(t, "pay-1", *rec.PaymentID)
	assert.False(t, rec.UpdatedAt.Before(before))
}

func TestIdempotencyRecord_SameHash(t *testing.T) {
	rec := domain.NewInProgressRecord("payments:charge", "idem-123", "hash-abc")

	assert.True(t, rec.SameHash("hash-abc"))
	assert.False(t, rec.SameHash("hash-xyz"))

	rec.RequestHash = ""
	assert.False(t, rec.SameHash(""))
}

func TestIdempotencyRecord_IsStaleInProgress(t *testing.T) {
	t.Run("fresh record is not stale", func(t *testing.T) {
		rec := domain.NewInProgressRecord("payments:charge", "idem-123", "hash-abc")

		assert.False(t, rec.IsStaleInProgress(30*time.Second))
	})

	t.Run("old record is stale", func(t *testing.T) {
		rec := domain.NewInProgressRecord("payments:charge", "idem-123", "hash-abc")
		rec.UpdatedAt = time.Now().Add(-1 * time.Minute)

		assert.True(t, rec.IsStaleInProgress(30*time.Second))
	})

	t.Run("falls back to created_at when updated_at is zero", func(t *testing.T) {
		rec := domain.NewInProgressRecord("payments:charge", "idem-123", "hash-abc")
		rec.UpdatedAt = time.Time{}
		rec.CreatedAt = time.Now().Add(-1 * time.Minute)

		assert.True(t, rec.IsStaleInProgress(30*time.Second))
	})

	t.Run("completed record is never stale", func(t *testing.T) {
		rec := domain.NewInProgressRecord("payments:charge", "idem-123", "hash-abc")
		rec.Complete(http.StatusCreated, "{}", "pay-1")
		rec.UpdatedAt = time.Now().Add(-1 * time.Hour)

		assert.False(t, rec.IsStaleInProgress(30*time.Second))
	})
}
