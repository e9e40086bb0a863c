package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// ComplaintFilter narrows complaint listings.
type ComplaintFilter struct {
	UserID   *string
	OrderID  *string
	Statuses []domain.ComplaintStatus
	Limit    int
	Offset   int
}

// ComplaintRepository persists complaints with their attachment metadata.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.ComplaintStatus, note string) error
	CountOpen(ctx context.Context) (int, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository constructs repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintColumns = `id, order_id, user_id, complaint_type, description, status, resolution_note,
               attachment_key, attachment_name, attachment_mime, attachment_size_bytes, created_at, updated_at`

func (r *complaintRepository) Create(ctx context.Context, c *domain.Complaint) error {
	var key, name, mime *string
	var size *int64
	if a := c.Attachment; a != nil {
		key, name, mime, size = &a.StorageKey, &a.FileName, &a.MimeType, &a.SizeBytes
	}
	const query = `
        INSERT INTO complaints (order_id, user_id, complaint_type, description, status,
            attachment_key, attachment_name, attachment_mime, attachment_size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		c.OrderID,
		c.UserID,
		c.Type,
		c.Description,
		c.Status,
		key,
		name,
		mime,
		size,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	complaints, err := scanComplaints(rows)
	if err != nil {
		return nil, err
	}
	if len(complaints) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &complaints[0], nil
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.OrderID != nil {
		args = append(args, *filter.OrderID)
		clauses = append(clauses, fmt.Sprintf("order_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		complaintColumns, strings.Join(clauses, " AND "), limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanComplaints(rows)
}

// UpdateStatus applies a guarded transition; a concurrent change yields ErrVersionConflict.
func (r *complaintRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ComplaintStatus, note string) error {
	const query = `
        UPDATE complaints SET status=$1, resolution_note=COALESCE(NULLIF($2, ''), resolution_note), updated_at=NOW()
        WHERE id=$3 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query, to, note, id, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *complaintRepository) CountOpen(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM complaints WHERE status IN ('submitted','under_review')`).Scan(&n)
	return n, err
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	defer rows.Close()
	var result []domain.Complaint
	for rows.Next() {
		var c domain.Complaint
		var key, name, mime *string
		var size *int64
		if err := rows.Scan(
			&c.ID,
			&c.OrderID,
			&c.UserID,
			&c.Type,
			&c.Description,
			&c.Status,
			&c.ResolutionNote,
			&key,
			&name,
			&mime,
			&size,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if key != nil {
			c.Attachment = &domain.Attachment{StorageKey: *key}
			if name != nil {
				c.Attachment.FileName = *name
			}
			if mime != nil {
				c.Attachment.MimeType = *mime
			}
			if size != nil {
				c.Attachment.SizeBytes = *size
			}
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
