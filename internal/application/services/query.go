package services

import (
	"context"
	"errors"

	"github.com/ficmart/charge-gateway/internal/application"
	"github.com/ficmart/charge-gateway/internal/domain"
	"github.com/ficmart/charge-gateway/internal/infrastructure/persistence/postgres"
)

type QueryService struct {
	paymentRepo *postgres.PaymentRepository
}

func NewQueryService(paymentRepo *postgres.PaymentRepository) *QueryService {
	return &QueryService{paymentRepo: paymentRepo}
}

func (s *QueryService) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrPaymentNotFound) {
			return nil, application.NewNotFoundError("payment")
		}
		return nil, application.NewInternalError(err)
	}
	return payment, nil
}
