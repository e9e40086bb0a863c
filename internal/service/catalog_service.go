package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/repository"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

const catalogCacheTTL = 5 * time.Minute

// CatalogService serves the public catalog and admin edits.
type CatalogService struct {
	catalog  repository.CatalogRepository
	cache    repository.CatalogCache
	logger   *zap.Logger
	currency string
}

// CategoryInput creates or updates a category.
type CategoryInput struct {
	Name        string `validate:"required,max=120"`
	Description string `validate:"max=2000"`
	Active      *bool
}

// ServiceInput creates or updates a service.
type ServiceInput struct {
	CategoryID  string `validate:"required"`
	Name        string `validate:"required,max=160"`
	Description string `validate:"max=5000"`
	Price       int64  `validate:"gt=0"`
	Currency    string `validate:"omitempty,len=3"`
	Active      *bool
}

// NewCatalogService constructs the service. A nil cache disables caching.
func NewCatalogService(catalog repository.CatalogRepository, cache repository.CatalogCache, currency string, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{catalog: catalog, cache: cache, logger: logger, currency: strings.ToUpper(currency)}
}

// ListServices returns services. Only the active listing is cached.
func (s *CatalogService) ListServices(ctx context.Context, includeInactive bool) ([]domain.Service, error) {
	if !includeInactive && s.cache != nil {
		cached, ok, err := s.cache.GetServices(ctx)
		if err != nil {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	services, err := s.catalog.ListServices(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	if services == nil {
		services = []domain.Service{}
	}
	if !includeInactive && s.cache != nil {
		if err := s.cache.SetServices(ctx, services, catalogCacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return services, nil
}

// GetService returns one service. Inactive services are hidden from non-staff.
func (s *CatalogService) GetService(ctx context.Context, actor domain.Actor, id string) (*domain.Service, error) {
	svc, err := s.catalog.GetService(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "service")
	}
	if !svc.Active && !actor.IsStaff() {
		return nil, apperrors.NewNotFound("service", nil)
	}
	return svc, nil
}

// ListCategories returns categories.
func (s *CatalogService) ListCategories(ctx context.Context, includeInactive bool) ([]domain.ServiceCategory, error) {
	categories, err := s.catalog.ListCategories(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.ServiceCategory{}
	}
	return categories, nil
}

// CreateCategory adds a category.
func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.ServiceCategory, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	category := &domain.ServiceCategory{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Active:      input.Active == nil || *input.Active,
	}
	if err := s.catalog.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory edits a category.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*domain.ServiceCategory, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	category, err := s.catalog.GetCategory(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category")
	}
	category.Name = strings.TrimSpace(input.Name)
	category.Description = strings.TrimSpace(input.Description)
	if input.Active != nil {
		category.Active = *input.Active
	}
	if err := s.catalog.UpdateCategory(ctx, category); err != nil {
		return nil, notFoundOr(err, "category")
	}
	s.invalidate(ctx)
	return category, nil
}

// CreateService adds a service to an existing category.
func (s *CatalogService) CreateService(ctx context.Context, input ServiceInput) (*domain.Service, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetCategory(ctx, input.CategoryID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError("unknown category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, err
	}
	svc := &domain.Service{
		CategoryID:  input.CategoryID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Currency:    s.currencyOr(input.Currency),
		Active:      input.Active == nil || *input.Active,
	}
	if err := s.catalog.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return svc, nil
}

// UpdateService edits a service. Existing orders keep the price they were placed at.
func (s *CatalogService) UpdateService(ctx context.Context, id string, input ServiceInput) (*domain.Service, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	svc, err := s.catalog.GetService(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "service")
	}
	if input.CategoryID != svc.CategoryID {
		if _, err := s.catalog.GetCategory(ctx, input.CategoryID); err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.NewValidationError("unknown category", map[string]any{"category_id": input.CategoryID})
			}
			return nil, err
		}
	}
	svc.CategoryID = input.CategoryID
	svc.Name = strings.TrimSpace(input.Name)
	svc.Description = strings.TrimSpace(input.Description)
	svc.Price = input.Price
	svc.Currency = s.currencyOr(input.Currency)
	if input.Active != nil {
		svc.Active = *input.Active
	}
	if err := s.catalog.UpdateService(ctx, svc); err != nil {
		return nil, notFoundOr(err, "service")
	}
	s.invalidate(ctx)
	return svc, nil
}

// DeactivateService hides a service from the public catalog.
func (s *CatalogService) DeactivateService(ctx context.Context, id string) error {
	svc, err := s.catalog.GetService(ctx, id)
	if err != nil {
		return notFoundOr(err, "service")
	}
	if !svc.Active {
		return nil
	}
	svc.Active = false
	if err := s.catalog.UpdateService(ctx, svc); err != nil {
		return notFoundOr(err, "service")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) currencyOr(raw string) string {
	if raw = strings.ToUpper(strings.TrimSpace(raw)); raw != "" {
		return raw
	}
	return s.currency
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidate failed", zap.Error(err))
	}
}
