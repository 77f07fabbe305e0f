package postgres

import "time"

// Row models mirror the table shapes; mapping to and from domain entities
// lives in mappers.go.

type PaymentModel struct {
	ID                 string
	IdempotencyKey     string
	CustomerID         string
	Amount             int64
	Currency           string
	PaymentMethodToken string
	Description        *string
	Status             string
	CreatedAt          time.Time
}

type IdempotencyRecordModel struct {
	ID             string
	Scope          string
	IdempotencyKey string
	RequestHash    string
	Status         string
	HTTPStatus     *int
	ResponseBody   *string
	PaymentID      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OutboxEventModel struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	EventKey      string
	Payload       string
	Status        string
	AttemptCount  int
	NextAttemptAt *time.Time
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SentAt        *time.Time
}
