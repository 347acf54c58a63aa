package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/api/http/handlers"
	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	AdminUsers     *handlers.AdminUsersHandler
	Tickets        *handlers.TicketsHandler
	Assignments    *handlers.AssignmentHandler
	Categories     *handlers.CategoriesHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authenticate := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", authenticate, cfg.Users.Logout)

	tickets := app.Group("/tickets", authenticate)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", auth.RequireAction(policy.ActionCreateTicket), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", auth.RequireAction(policy.ActionChangeStatus), cfg.Tickets.TransitionStatus)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Put("/:id/assignee", auth.RequireAction(policy.ActionAssignTicket), cfg.Assignments.Assign)
	tickets.Delete("/:id/assignee", auth.RequireAction(policy.ActionAssignTicket), cfg.Assignments.Unassign)

	categories := app.Group("/categories", authenticate)
	categories.Get("/", cfg.Categories.List)
	categories.Get("/:id", cfg.Categories.Get)
	manage := auth.RequireAction(policy.ActionManageCategories)
	categories.Post("/", manage, cfg.Categories.Create)
	categories.Patch("/:id", manage, cfg.Categories.Rename)
	categories.Delete("/:id", manage, cfg.Categories.Delete)

	app.Get("/dashboard", authenticate, cfg.Dashboard.Summary)

	admin := app.Group("/admin", authenticate)
	admin.Get("/unassigned", auth.RequireAction(policy.ActionAssignTicket), cfg.Assignments.ListUnassigned)
	admin.Get("/agents", auth.RequireAction(policy.ActionAssignTicket), cfg.Assignments.ListAgents)

	users := admin.Group("/users", auth.RequireAction(policy.ActionManageUsers))
	users.Get("/", cfg.AdminUsers.ListUsers)
	users.Post("/", cfg.AdminUsers.CreateUser)
	users.Get("/:id", cfg.AdminUsers.GetUser)
	users.Patch("/:id", cfg.AdminUsers.UpdateUser)
	users.Delete("/:id", cfg.AdminUsers.DeactivateUser)
}

// NewApp builds the fiber application with the error handler, global
// middlewares and every route installed.
func NewApp(appName string, logger *zap.Logger, timeout time.Duration, routes RouteConfig) *fiber.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               appName,
		ErrorHandler:          NewErrorHandler(logger, routes.Metrics),
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, routes.Metrics, timeout)
	RegisterRoutes(app, routes)
	return app
}
