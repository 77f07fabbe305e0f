// Package handlers wires the HTTP surface of the gateway.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ficmart/charge-gateway/internal/application/services"
	"github.com/ficmart/charge-gateway/internal/domain"
	"github.com/go-playground/validator"
)

// ChargeExecutor is the idempotent charge coordinator as seen by HTTP.
type ChargeExecutor interface {
	Charge(ctx context.Context, idempotencyKey, requestHash string, cmd services.ChargeCommand) (*services.ChargeResult, error)
}

// PaymentFinder serves payment lookups.
type PaymentFinder interface {
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
}

type Handlers struct {
	chargeService ChargeExecutor
	queryService  PaymentFinder
	validate      *validator.Validate
	logger        *slog.Logger
}

func NewHandlers(chargeService ChargeExecutor, queryService PaymentFinder, logger *slog.Logger) *Handlers {
	return &Handlers{
		chargeService: chargeService,
		queryService:  queryService,
		validate:      validator.New(),
		logger:        logger,
	}
}

// RegisterRoutes attaches the API routes to the mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/payments/charges", h.ChargePayment)
	mux.HandleFunc("GET /api/payments/{id}", h.GetPayment)
}
