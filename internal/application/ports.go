package application

import (
	"context"

	"github.com/ficmart/charge-gateway/internal/domain"
)

// PaymentProcessor abstracts the external PSP performing the actual
// authorization. The processor must be idempotent on the supplied key.
type PaymentProcessor interface {
	Authorize(ctx context.Context, idempotencyKey string, req AuthorizeRequest) (*domain.Payment, error)
}

// AuthorizeRequest is the processor-facing view of a charge.
type AuthorizeRequest struct {
	CustomerID         string
	Amount             int64
	Currency           string
	PaymentMethodToken string
	Description        *string
}

// EventPublisher abstracts the message bus. Publish must block until the
// broker acknowledges the message or the context/timeout expires.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// CachedResponse is a completed idempotent response held by the cache.
type CachedResponse struct {
	RequestHash  string `json:"requestHash"`
	HTTPStatus   int    `json:"httpStatus"`
	ResponseBody string `json:"responseBody"`
}

// ResponseCache is a read-through accelerator for completed replays. It is
// never authoritative: misses fall back to the idempotency store, and writes
// are best-effort.
type ResponseCache interface {
	Get(ctx context.Context, scope, key string) (*CachedResponse, error)
	Put(ctx context.Context, scope, key string, response CachedResponse) error
}
