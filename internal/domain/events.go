package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentChargedEvent is the envelope published to the payments-events topic
// when a charge is authorized.
type PaymentChargedEvent struct {
	SchemaVersion  string    `json:"schemaVersion"`
	EventID        string    `json:"eventId"`
	OccurredAt     time.Time `json:"occurredAt"`
	PaymentID      string    `json:"paymentId"`
	IdempotencyKey string    `json:"idempotencyKey"`
	CustomerID     string    `json:"customerId"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	Description    *string   `json:"description"`
}

// NewPaymentChargedEvent builds the event for a freshly created payment.
func NewPaymentChargedEvent(p *Payment) *PaymentChargedEvent {
	return &PaymentChargedEvent{
		SchemaVersion:  "1",
		EventID:        uuid.New().String(),
		OccurredAt:     time.Now().UTC(),
		PaymentID:      p.ID,
		IdempotencyKey: p.IdempotencyKey,
		CustomerID:     p.CustomerID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Status:         string(p.Status),
		Description:    p.Description,
	}
}
