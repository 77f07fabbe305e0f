package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ficmart/charge-gateway/internal/application"
	"github.com/ficmart/charge-gateway/internal/application/services"
	"github.com/ficmart/charge-gateway/internal/interfaces/rest"
)

const (
	headerIdempotencyKey = "X-Idempotency-Key"
	headerRequestHash    = "X-Idempotency-Request-Hash"
	headerReplayed       = "X-Idempotency-Replayed"
)

// ChargeRequest is the wire shape of a charge submission.
type ChargeRequest struct {
	CustomerID         string  `json:"customerId" validate:"required"`
	Amount             int64   `json:"amount" validate:"required,gt=0"`
	Currency           string  `json:"currency" validate:"required,len=3"`
	PaymentMethodToken string  `json:"paymentMethodToken" validate:"required"`
	Description        *string `json:"description,omitempty"`
}

// ChargePayment handles POST /api/payments/charges.
//
// The request hash is computed here, once, over the canonical form of the
// command; the coordinator compares it against the stored hash and never
// re-derives it.
func (h *Handlers) ChargePayment(w http.ResponseWriter, r *http.Request) {
	key, ok := rest.NormalizeIdempotencyKey(r.Header.Get(headerIdempotencyKey))
	if !ok {
		rest.WriteError(w, application.NewInvalidInputError(
			"X-Idempotency-Key header is required: 1-128 characters from [A-Za-z0-9._:-]",
		), h.logger)
		return
	}

	var req ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError("request body is not valid JSON"), h.logger)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError(fmt.Sprintf("invalid charge request: %v", err)), h.logger)
		return
	}

	cmd := services.ChargeCommand{
		CustomerID:         req.CustomerID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		PaymentMethodToken: req.PaymentMethodToken,
		Description:        req.Description,
	}

	requestHash, err := services.ComputeRequestHash(cmd)
	if err != nil {
		rest.WriteError(w, application.NewInternalError(err), h.logger)
		return
	}

	result, err := h.chargeService.Charge(r.Context(), key, requestHash, cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(headerIdempotencyKey, key)
	w.Header().Set(headerRequestHash, requestHash)
	if result.Replayed {
		w.Header().Set(headerReplayed, "true")
	}
	if paymentID := paymentIDFrom(result.ResponseBody); paymentID != "" {
		w.Header().Set("Location", "/api/payments/"+paymentID)
	}

	w.WriteHeader(result.HTTPStatus)
	// The stored body is served byte for byte so replays are identical to
	// the first response.
	w.Write([]byte(result.ResponseBody))
}

func paymentIDFrom(body string) string {
	var envelope struct {
		PaymentID string `json:"paymentId"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return ""
	}
	return envelope.PaymentID
}
