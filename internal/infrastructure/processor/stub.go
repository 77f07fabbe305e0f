// Package processor adapts external payment providers (PSPs) to the
// application's PaymentProcessor port.
package processor

import (
	"context"

	"github.com/ficmart/charge-gateway/internal/application"
	"github.com/ficmart/charge-gateway/internal/domain"
)

// Stub is a deterministic processor for local development and tests: it
// always authorizes. A real PSP integration must be idempotent on the
// supplied key and record its outcome before the surrounding transaction
// commits.
type Stub struct{}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Authorize(ctx context.Context, idempotencyKey string, req application.AuthorizeRequest) (*domain.Payment, error) {
	return domain.NewAuthorizedPayment(
		idempotencyKey,
		req.CustomerID,
		req.Amount,
		req.Currency,
		req.PaymentMethodToken,
		req.Description,
	)
}

var _ application.PaymentProcessor = (*Stub)(nil)
