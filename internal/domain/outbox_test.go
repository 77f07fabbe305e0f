package domain_test

import (
	"testing"
	"time"

	"github.com/ficmart/charge-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxEvent(t *testing.T) {
	event := domain.NewOutboxEvent("Payment", "pay-1", "PaymentCharged", "pay-1", `{"paymentId":"pay-1"}`)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "Payment", event.AggregateType)
	assert.Equal(t, "pay-1", event.AggregateID)
	assert.Equal(t, "PaymentCharged", event.EventType)
	assert.Equal(t, "pay-1", event.EventKey)
	assert.Equal(t, domain.OutboxNew, event.Status)
	assert.Equal(t, 0, event.AttemptCount)
	assert.Nil(t, event.NextAttemptAt)
	assert.Nil(t, event.LastError)
	assert.Nil(t, event.SentAt)
}

func TestOutboxEvent_MarkSent(t *testing.T) {
	event := domain.NewOutboxEvent("Payment", "pay-1", "PaymentCharged", "pay-1", "{}")
	event.MarkRetry("broker unavailable", time.Second)

	event.MarkSent()

	assert.Equal(t, domain.OutboxSent, event.Status)
	require.NotNil(t, event.SentAt)
	assert.Nil(t, event.NextAttemptAt)
	assert.Nil(t, event.LastError)
}

func TestOutboxEvent_MarkRetry(t *testing.T) {
	event := domain.NewOutboxEvent("Payment", "pay-1", "PaymentCharged", "pay-1", "{}")

	before := time.Now()
	event.MarkRetry("broker unavailable", 2*time.Second)

	assert.Equal(t, domain.OutboxRetry, event.Status)
	assert.Equal(t, 1, event.AttemptCount)
	require.NotNil(t, event.LastError)
	assert.Equal(t, "broker unavailable", *event.LastError)
	require.NotNil(t, event.NextAttemptAt)
	assert.True(t, event.NextAttemptAt.After(before.Add(1*time.Second)))

	event.MarkRetry("broker unavailable", 4*time.Second)
	assert.Equal(t, 2, event.AttemptCount)
}

func TestOutboxEvent_MarkDead(t *testing.T) {
	event := domain.NewOutboxEvent("Payment", "pay-1", "PaymentCharged", "pay-1", "{}")
	for i := 0; i < 9; i++ {
		event.MarkRetry("broker unavailable", time.Second)
	}

	event.MarkDead("broker unavailable")

	assert.Equal(t, domain.OutboxDead, event.Status)
	assert.Equal(t, 10, event.AttemptCount)
	assert.Nil(t, event.NextAttemptAt)
	require.NotNil(t, event.LastError)
}
