package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ficmart/charge-gateway/internal/application"
	"github.com/ficmart/charge-gateway/internal/application/services"
	"github.com/ficmart/charge-gateway/internal/interfaces/rest"
)

// GetPayment handles GET /api/payments/{id}.
func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		rest.WriteError(w, application.NewInvalidInputError("payment id is required"), h.logger)
		return
	}

	payment, err := h.queryService.GetPayment(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(services.PaymentResponseFrom(payment))
}
