// Package domain holds the persistent entities of the charge gateway:
// payments, idempotency records and outbox events.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the current state of a payment.
type PaymentStatus string

const (
	StatusAuthorized PaymentStatus = "AUTHORIZED"
	StatusCaptured   PaymentStatus = "CAPTURED"
	StatusFailed     PaymentStatus = "FAILED"
)

// Payment is the business fact of a single charge. It is created exactly once
// per accepted charge and never updated or deleted by the gateway.
//
// IdempotencyKey carries a global unique constraint in the database; it is the
// last line of defense against double charges even if coordinator logic is
// bypassed.
type Payment struct {
	ID                 string
	IdempotencyKey     string
	CustomerID         string
	Amount             int64
	Currency           string
	PaymentMethodToken string
	Description        *string
	Status             PaymentStatus
	CreatedAt          time.Time
}

// NewAuthorizedPayment builds a freshly authorized payment.
func NewAuthorizedPayment(
	idempotencyKey string,
	customerID string,
	amount int64,
	currency string,
	paymentMethodToken string,
	description *string,
) (*Payment, error) {
	if idempotencyKey == "" {
		return nil, errors.New("idempotency key is required")
	}
	if customerID == "" {
		return nil, errors.New("customer ID is required")
	}
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if currency == "" {
		return nil, errors.New("currency is required")
	}
	if paymentMethodToken == "" {
		return nil, errors.New("payment method token is required")
	}

	return &Payment{
		ID:                 uuid.New().String(),
		IdempotencyKey:     idempotencyKey,
		CustomerID:         customerID,
		Amount:             amount,
		Currency:           currency,
		PaymentMethodToken: paymentMethodToken,
		Description:        description,
		Status:             StatusAuthorized,
		CreatedAt:          time.Now().UTC(),
	}, nil
}
