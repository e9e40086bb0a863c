package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/consulting-service/internal/api/http/handlers"
	"github.com/spec-kit/consulting-service/internal/auth"
	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Orders         *handlers.OrdersHandler
	StaffOrders    *handlers.StaffOrdersHandler
	Payments       *handlers.PaymentsHandler
	Catalog        *handlers.CatalogHandler
	Feedback       *handlers.FeedbackHandler
	Complaints     *handlers.ComplaintsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	// ConfirmationCode guards destructive admin routes; empty disables them.
	ConfirmationCode string
	// Limiter throttles chat sends and checkout creation per client IP. Nil disables it.
	Limiter *IPRateLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	throttle := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.Limiter != nil {
		throttle = cfg.Limiter.Handler()
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", cfg.Users.Logout)
	authGroup.Post("/password/reset/request", throttle, cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	app.Get("/services", cfg.Catalog.ListServices)
	app.Get("/services/:id", cfg.Catalog.GetService)
	app.Get("/categories", cfg.Catalog.ListCategories)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	protected.Get("/me", cfg.Users.Me)
	protected.Put("/me", cfg.Users.UpdateProfile)
	protected.Post("/me/password", cfg.Users.ChangePassword)

	// per-route guard: an empty-prefix group would apply it to every later route
	clientOnly := auth.RequireRole(domain.RoleClient)
	protected.Post("/payments/checkout", clientOnly, throttle, cfg.Payments.Checkout)
	protected.Post("/payments/confirm", clientOnly, cfg.Payments.Confirm)
	protected.Post("/payments/fail", clientOnly, cfg.Payments.Fail)
	protected.Post("/orders/:id/complaints", clientOnly, cfg.Complaints.Submit)
	protected.Post("/feedback", clientOnly, cfg.Feedback.Submit)

	protected.Get("/orders", cfg.Orders.ListOwn)
	protected.Get("/orders/:id", cfg.Orders.Get)
	protected.Get("/orders/:id/timeline", cfg.Orders.Timeline)
	protected.Post("/orders/:id/cancel", cfg.Orders.Cancel)
	protected.Get("/orders/:id/messages", cfg.Orders.ListMessages)
	protected.Post("/orders/:id/messages", throttle, cfg.Orders.SendMessage)
	protected.Post("/orders/:id/messages/read", cfg.Orders.MarkRead)
	protected.Get("/feedback", cfg.Feedback.List)
	protected.Get("/complaints", cfg.Complaints.List)
	protected.Get("/complaints/:id", cfg.Complaints.Get)

	staff := protected.Group("/staff", auth.RequireStaff())
	staff.Get("/orders", cfg.StaffOrders.List)
	staff.Patch("/orders/:id/status", cfg.StaffOrders.UpdateStatus)
	staff.Get("/dashboard", cfg.StaffOrders.Dashboard)
	staff.Patch("/complaints/:id", cfg.Complaints.Review)

	admin := protected.Group("/admin", auth.RequireAdmin())
	admin.Get("/dashboard", cfg.Admin.Dashboard)
	admin.Get("/notifications", cfg.Admin.Notifications)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Patch("/users/:id/role", cfg.Admin.SetRole)
	admin.Patch("/users/:id/active", cfg.Admin.SetActive)
	admin.Get("/services", cfg.Catalog.ListAllServices)
	admin.Post("/services", cfg.Catalog.CreateService)
	admin.Put("/services/:id", cfg.Catalog.UpdateService)
	admin.Delete("/services/:id", cfg.Catalog.DeactivateService)
	admin.Post("/categories", cfg.Catalog.CreateCategory)
	admin.Put("/categories/:id", cfg.Catalog.UpdateCategory)
	admin.Delete("/feedback/:id", auth.RequireConfirmationCode(cfg.ConfirmationCode), cfg.Feedback.Delete)
}
