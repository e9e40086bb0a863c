package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/consulting-service/internal/api/dto"
	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/service"
)

// CatalogHandler serves the public catalog and its admin management.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListServices handles GET /services.
func (h *CatalogHandler) ListServices(c *fiber.Ctx) error {
	return h.listServices(c, false)
}

// ListAllServices handles GET /admin/services, inactive entries included.
func (h *CatalogHandler) ListAllServices(c *fiber.Ctx) error {
	return h.listServices(c, true)
}

func (h *CatalogHandler) listServices(c *fiber.Ctx, includeInactive bool) error {
	services, err := h.catalog.ListServices(c.UserContext(), includeInactive)
	if err != nil {
		return err
	}
	categoryID := c.Query("category_id")
	items := make([]dto.ServiceResponse, 0, len(services))
	for i := range services {
		if categoryID != "" && services[i].CategoryID != categoryID {
			continue
		}
		items = append(items, dto.NewServiceResponse(&services[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetService handles GET /services/:id. Anonymous callers see active services only.
func (h *CatalogHandler) GetService(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	svc, err := h.catalog.GetService(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}

// ListCategories handles GET /categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	includeInactive := actor.Role == domain.RoleAdmin && c.QueryBool("include_inactive")
	categories, err := h.catalog.ListCategories(c.UserContext(), includeInactive)
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, dto.NewCategoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateCategory handles POST /admin/categories.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.catalog.CreateCategory(c.UserContext(), categoryInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCategoryResponse(category)})
}

// UpdateCategory handles PUT /admin/categories/:id.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.catalog.UpdateCategory(c.UserContext(), c.Params("id"), categoryInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponse(category)})
}

// CreateService handles POST /admin/services.
func (h *CatalogHandler) CreateService(c *fiber.Ctx) error {
	var req dto.ServiceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	svc, err := h.catalog.CreateService(c.UserContext(), serviceInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}

// UpdateService handles PUT /admin/services/:id.
func (h *CatalogHandler) UpdateService(c *fiber.Ctx) error {
	var req dto.ServiceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	svc, err := h.catalog.UpdateService(c.UserContext(), c.Params("id"), serviceInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}

// DeactivateService handles DELETE /admin/services/:id. Services are never hard-deleted
// since orders keep referencing them.
func (h *CatalogHandler) DeactivateService(c *fiber.Ctx) error {
	if err := h.catalog.DeactivateService(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func categoryInput(req dto.CategoryRequest) service.CategoryInput {
	return service.CategoryInput{Name: req.Name, Description: req.Description, Active: req.Active}
}

func serviceInput(req dto.ServiceRequest) service.ServiceInput {
	return service.ServiceInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Active:      req.Active,
	}
}
