package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// PaymentAttemptRepository records checkout attempts.
type PaymentAttemptRepository interface {
	Create(ctx context.Context, attempt *domain.PaymentAttempt) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentAttempt, error)
	MarkCompleted(ctx context.Context, id, gatewayPaymentID string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type paymentAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentAttemptRepository constructs repository.
func NewPaymentAttemptRepository(pool *pgxpool.Pool) PaymentAttemptRepository {
	return &paymentAttemptRepository{pool: pool}
}

func (r *paymentAttemptRepository) Create(ctx context.Context, a *domain.PaymentAttempt) error {
	const query = `
        INSERT INTO payment_attempts (user_id, service_id, gateway, gateway_order_id, amount, currency, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		a.UserID,
		a.ServiceID,
		a.Gateway,
		a.GatewayOrderID,
		a.Amount,
		a.Currency,
		a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *paymentAttemptRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentAttempt, error) {
	const query = `
        SELECT id, user_id, service_id, gateway, gateway_order_id, gateway_payment_id, amount, currency,
               status, failure_reason, created_at, updated_at
        FROM payment_attempts WHERE gateway_order_id=$1`
	var a domain.PaymentAttempt
	if err := r.pool.QueryRow(ctx, query, gatewayOrderID).Scan(
		&a.ID,
		&a.UserID,
		&a.ServiceID,
		&a.Gateway,
		&a.GatewayOrderID,
		&a.GatewayPaymentID,
		&a.Amount,
		&a.Currency,
		&a.Status,
		&a.FailureReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *paymentAttemptRepository) MarkCompleted(ctx context.Context, id, gatewayPaymentID string) error {
	return r.setStatus(ctx, id, domain.PaymentStatusCompleted, gatewayPaymentID, "")
}

func (r *paymentAttemptRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return r.setStatus(ctx, id, domain.PaymentStatusFailed, "", reason)
}

// setStatus only moves attempts out of pending.
func (r *paymentAttemptRepository) setStatus(ctx context.Context, id string, status domain.PaymentStatus, paymentID, reason string) error {
	const query = `
        UPDATE payment_attempts SET status=$1, gateway_payment_id=COALESCE(NULLIF($2, ''), gateway_payment_id),
            failure_reason=$3, updated_at=NOW()
        WHERE id=$4 AND status='pending'`
	cmd, err := r.pool.Exec(ctx, query, status, paymentID, reason, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
