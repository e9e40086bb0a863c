package dto

import (
	"time"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// CategoryRequest creates or updates a category.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

// ServiceRequest creates or updates a service.
type ServiceRequest struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
	Active      *bool  `json:"active"`
}

// CategoryResponse view.
type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// ServiceResponse view.
type ServiceResponse struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Currency    string    `json:"currency"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCategoryResponse maps a category.
func NewCategoryResponse(c *domain.ServiceCategory) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description, Active: c.Active}
}

// NewServiceResponse maps a service.
func NewServiceResponse(s *domain.Service) ServiceResponse {
	return ServiceResponse{
		ID:          s.ID,
		CategoryID:  s.CategoryID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		Currency:    s.Currency,
		Active:      s.Active,
		UpdatedAt:   s.UpdatedAt,
	}
}
