package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// CatalogRepository persists service categories and services.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, category *domain.ServiceCategory) error
	UpdateCategory(ctx context.Context, category *domain.ServiceCategory) error
	GetCategory(ctx context.Context, id string) (*domain.ServiceCategory, error)
	ListCategories(ctx context.Context, includeInactive bool) ([]domain.ServiceCategory, error)

	CreateService(ctx context.Context, service *domain.Service) error
	UpdateService(ctx context.Context, service *domain.Service) error
	GetService(ctx context.Context, id string) (*domain.Service, error)
	ListServices(ctx context.Context, includeInactive bool) ([]domain.Service, error)
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository constructs repository.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) CreateCategory(ctx context.Context, c *domain.ServiceCategory) error {
	const query = `
        INSERT INTO service_categories (name, description, active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, c.Name, c.Description, c.Active).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *catalogRepository) UpdateCategory(ctx context.Context, c *domain.ServiceCategory) error {
	const query = `
        UPDATE service_categories SET name=$1, description=$2, active=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, c.Name, c.Description, c.Active, c.ID).Scan(&c.UpdatedAt)
}

func (r *catalogRepository) GetCategory(ctx context.Context, id string) (*domain.ServiceCategory, error) {
	const query = `
        SELECT id, name, description, active, created_at, updated_at
        FROM service_categories WHERE id=$1`
	var c domain.ServiceCategory
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context, includeInactive bool) ([]domain.ServiceCategory, error) {
	const query = `
        SELECT id, name, description, active, created_at, updated_at
        FROM service_categories WHERE active OR $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceCategory
	for rows.Next() {
		var c domain.ServiceCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

const serviceColumns = `id, category_id, name, description, price, currency, active, created_at, updated_at`

func (r *catalogRepository) CreateService(ctx context.Context, s *domain.Service) error {
	const query = `
        INSERT INTO services (category_id, name, description, price, currency, active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, s.CategoryID, s.Name, s.Description, s.Price, s.Currency, s.Active).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *catalogRepository) UpdateService(ctx context.Context, s *domain.Service) error {
	const query = `
        UPDATE services SET category_id=$1, name=$2, description=$3, price=$4, currency=$5, active=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, s.CategoryID, s.Name, s.Description, s.Price, s.Currency, s.Active, s.ID).
		Scan(&s.UpdatedAt)
}

func (r *catalogRepository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+serviceColumns+` FROM services WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	services, err := scanServices(rows)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &services[0], nil
}

func (r *catalogRepository) ListServices(ctx context.Context, includeInactive bool) ([]domain.Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+serviceColumns+` FROM services WHERE active OR $1 ORDER BY name`, includeInactive)
	if err != nil {
		return nil, err
	}
	return scanServices(rows)
}

func scanServices(rows pgx.Rows) ([]domain.Service, error) {
	defer rows.Close()
	var result []domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(
			&s.ID,
			&s.CategoryID,
			&s.Name,
			&s.Description,
			&s.Price,
			&s.Currency,
			&s.Active,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
