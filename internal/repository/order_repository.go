package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// ErrVersionConflict is returned when an order changed between read and write.
var ErrVersionConflict = errors.New("order version conflict")

// OrderFilter captures staff search parameters.
type OrderFilter struct {
	UserID      *string
	ServiceID   *string
	Statuses    []domain.OrderStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// OrderRepository encapsulates order and timeline persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByGatewayPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	// UpdateStatus overwrites the status and appends one timeline event atomically.
	// It fails with ErrVersionConflict when the stored version differs from expectedVersion.
	UpdateStatus(ctx context.Context, orderID string, expectedVersion int, event domain.TimelineEvent) error
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	RevenueByCurrency(ctx context.Context) (map[string]int64, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `id, user_id, user_name, user_email, service_id, service_name, amount, currency,
               status, payment_status, gateway, gateway_order_id, gateway_payment_id, version, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO orders (user_id, user_name, user_email, service_id, service_name, amount, currency,
                status, payment_status, gateway, gateway_order_id, gateway_payment_id)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
            RETURNING id, version, created_at, updated_at`
		if err := tx.QueryRow(ctx, query,
			order.UserID,
			order.UserName,
			order.UserEmail,
			order.ServiceID,
			order.ServiceName,
			order.Amount,
			order.Currency,
			order.Status,
			order.PaymentStatus,
			order.Gateway,
			order.GatewayOrderID,
			order.GatewayPaymentID,
		).Scan(&order.ID, &order.Version, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return err
		}
		for _, event := range order.Timeline {
			if err := insertTimelineEvent(ctx, tx, order.ID, event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetchWithTimeline(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *orderRepository) GetByGatewayPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	return r.fetchWithTimeline(ctx, `SELECT `+orderColumns+` FROM orders WHERE gateway_payment_id=$1`, paymentID)
}

func (r *orderRepository) fetchWithTimeline(ctx context.Context, query string, arg any) (*domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, pgx.ErrNoRows
	}
	order := &orders[0]

	timeline, err := r.timeline(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Timeline = timeline
	return order, nil
}

func (r *orderRepository) timeline(ctx context.Context, orderID string) ([]domain.TimelineEvent, error) {
	const query = `
        SELECT status, message, updated_by, created_at
        FROM order_timeline WHERE order_id=$1 ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimelineEvent
	for rows.Next() {
		var event domain.TimelineEvent
		if err := rows.Scan(&event.Status, &event.Message, &event.UpdatedBy, &event.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, expectedVersion int, event domain.TimelineEvent) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            UPDATE orders SET status=$1, version=version+1, updated_at=$2
            WHERE id=$3 AND version=$4`
		cmd, err := tx.Exec(ctx, query, event.Status, event.Timestamp, orderID, expectedVersion)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return pgx.ErrNoRows
			}
			return ErrVersionConflict
		}
		return insertTimelineEvent(ctx, tx, orderID, event)
	})
}

func insertTimelineEvent(ctx context.Context, tx pgx.Tx, orderID string, event domain.TimelineEvent) error {
	const query = `
        INSERT INTO order_timeline (order_id, status, message, updated_by, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := tx.Exec(ctx, query, orderID, event.Status, event.Message, event.UpdatedBy, event.Timestamp)
	return err
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.ServiceID != nil {
		args = append(args, *filter.ServiceID)
		clauses = append(clauses, fmt.Sprintf("service_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		orderColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int)
	for _, s := range domain.OrderStatuses() {
		counts[s] = 0
	}
	for rows.Next() {
		var status domain.OrderStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *orderRepository) RevenueByCurrency(ctx context.Context) (map[string]int64, error) {
	const query = `
        SELECT currency, COALESCE(SUM(amount), 0) FROM orders
        WHERE payment_status='completed' AND status <> 'cancelled'
        GROUP BY currency`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	revenue := make(map[string]int64)
	for rows.Next() {
		var currency string
		var total int64
		if err := rows.Scan(&currency, &total); err != nil {
			return nil, err
		}
		revenue[currency] = total
	}
	return revenue, rows.Err()
}

func scanOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.UserName,
			&order.UserEmail,
			&order.ServiceID,
			&order.ServiceName,
			&order.Amount,
			&order.Currency,
			&order.Status,
			&order.PaymentStatus,
			&order.Gateway,
			&order.GatewayOrderID,
			&order.GatewayPaymentID,
			&order.Version,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}
