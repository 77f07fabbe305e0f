package postgres

import "github.com/ficmart/charge-gateway/internal/domain"

func toPaymentModel(p *domain.Payment) PaymentModel {
	return PaymentModel{
		ID:                 p.ID,
		IdempotencyKey:     p.IdempotencyKey,
		CustomerID:         p.CustomerID,
		Amount:             p.Amount,
		Currency:           p.Currency,
		PaymentMethodToken: p.PaymentMethodToken,
		Description:        p.Description,
		Status:             string(p.Status),
		CreatedAt:          p.CreatedAt,
	}
}

func toPaymentDomain(m PaymentModel) *domain.Payment {
	return &domain.Payment{
		ID:                 m.ID,
		IdempotencyKey:     m.IdempotencyKey,
		CustomerID:         m.CustomerID,
		Amount:             m.Amount,
		Currency:           m.Currency,
		PaymentMethodToken: m.PaymentMethodToken,
		Description:        m.Description,
		Status:             domain.PaymentStatus(m.Status),
		CreatedAt:          m.CreatedAt,
	}
}

func toRecordDomain(m IdempotencyRecordModel) *domain.IdempotencyRecord {
	return &domain.IdempotencyRecord{
		ID:             m.ID,
		Scope:          m.Scope,
		IdempotencyKey: m.IdempotencyKey,
		RequestHash:    m.RequestHash,
		Status:         domain.IdempotencyStatus(m.Status),
		HTTPStatus:     m.HTTPStatus,
		ResponseBody:   m.ResponseBody,
		PaymentID:      m.PaymentID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toOutboxDomain(m OutboxEventModel) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            m.ID,
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		EventType:     m.EventType,
		EventKey:      m.EventKey,
		Payload:       m.Payload,
		Status:        domain.OutboxStatus(m.Status),
		AttemptCount:  m.AttemptCount,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     m.LastError,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		SentAt:        m.SentAt,
	}
}
