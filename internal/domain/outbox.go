package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of an outbox event.
type OutboxStatus string

const (
	OutboxNew   OutboxStatus = "NEW"
	OutboxRetry OutboxStatus = "RETRY"
	OutboxSent  OutboxStatus = "SENT"
	OutboxDead  OutboxStatus = "DEAD"
)

// OutboxEvent is one pending delivery to the message bus.
//
// The event row is written in the same transaction as the business state it
// describes; a separate dispatcher drains it to Kafka with retries. SENT and
// DEAD are terminal.
type OutboxEvent struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	EventKey      string
	Payload       string
	Status        OutboxStatus
	AttemptCount  int
	NextAttemptAt *time.Time
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SentAt        *time.Time
}

// NewOutboxEvent creates an event with status NEW. eventKey becomes the Kafka
// partition key.
func NewOutboxEvent(aggregateType, aggregateID, eventType, eventKey, payload string) *OutboxEvent {
	now := time.Now().UTC()
	return &OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		EventKey:      eventKey,
		Payload:       payload,
		Status:        OutboxNew,
		AttemptCount:  0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MarkSent records a successful, acknowledged publish.
func (e *OutboxEvent) MarkSent() {
	now := time.Now().UTC()
	e.Status = OutboxSent
	e.SentAt = &now
	e.UpdatedAt = now
	e.NextAttemptAt = nil
	e.LastError = nil
}

// MarkRetry records a retryable failure and schedules the next attempt.
func (e *OutboxEvent) MarkRetry(errMsg string, backoff time.Duration) {
	now := time.Now().UTC()
	next := now.Add(backoff)
	e.Status = OutboxRetry
	e.AttemptCount++
	e.LastError = &errMsg
	e.NextAttemptAt = &next
	e.UpdatedAt = now
}

// MarkDead records a permanent failure after the retry budget is exhausted.
// Dead events require manual operator action.
func (e *OutboxEvent) MarkDead(errMsg string) {
	now := time.Now().UTC()
	e.Status = OutboxDead
	e.AttemptCount++
	e.LastError = &errMsg
	e.NextAttemptAt = nil
	e.UpdatedAt = now
}
