package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ficmart/charge-gateway/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrPaymentNotFound = errors.New("payment not found")

// ErrDuplicatePayment signals that the unique constraint on
// payments.idempotency_key fired: a concurrent transaction already charged
// this key.
var ErrDuplicatePayment = errors.New("payment already exists for idempotency key")

const paymentColumns = `id, idempotency_key, customer_id, amount, currency,
       payment_method_token, description, status, created_at`

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) executor(tx pgx.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db.Pool
}

// Create inserts the payment. Returns ErrDuplicatePayment if a payment with
// the same idempotency key already exists.
func (r *PaymentRepository) Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	p := toPaymentModel(payment)
	_, err := r.executor(tx).Exec(ctx, query,
		p.ID,
		p.IdempotencyKey,
		p.CustomerID,
		p.Amount,
		p.Currency,
		p.PaymentMethodToken,
		p.Description,
		p.Status,
		p.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// FindByID retrieves a payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	row := r.db.Pool.QueryRow(ctx, query, id)
	return scanPayment(row)
}

// FindByIdempotencyKey retrieves a payment by its idempotency key.
func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, tx pgx.Tx, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	row := r.executor(tx).QueryRow(ctx, query, key)
	return scanPayment(row)
}

// scanPayment converts a database row into a domain Payment.
// Returns ErrPaymentNotFound if the row doesn't exist.
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var m PaymentModel
	err := row.Scan(
		&m.ID, &m.IdempotencyKey, &m.CustomerID, &m.Amount, &m.Currency,
		&m.PaymentMethodToken, &m.Description, &m.Status, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return toPaymentDomain(m), nil
}
