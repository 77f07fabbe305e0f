package services

import (
	"time"

	"github.com/ficmart/charge-gateway/internal/domain"
)

// ChargeCommand carries a validated charge request into the coordinator.
// The JSON tags define the canonical form the request hash is computed over.
type ChargeCommand struct {
	CustomerID         string  `json:"customerId"`
	Amount             int64   `json:"amount"`
	Currency           string  `json:"currency"`
	PaymentMethodToken string  `json:"paymentMethodToken"`
	Description        *string `json:"description,omitempty"`
}

// PaymentResponse is the response body persisted for replays and returned to
// clients. Replays serve the stored JSON verbatim, so the bytes produced here
// are the bytes every duplicate request will receive.
type PaymentResponse struct {
	PaymentID   string    `json:"paymentId"`
	Status      string    `json:"status"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	CustomerID  string    `json:"customerId"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PaymentResponseFrom maps a payment to its API response.
func PaymentResponseFrom(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:   p.ID,
		Status:      string(p.Status),
		Amount:      p.Amount,
		Currency:    p.Currency,
		CustomerID:  p.CustomerID,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

// ChargeResult is the outcome of an idempotent charge.
type ChargeResult struct {
	HTTPStatus   int
	ResponseBody string
	Replayed     bool
}
