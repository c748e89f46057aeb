// Package server assembles the Fiber application: middleware chain and routes.
package server

import (
	"context"
	"strings"
	"time"

	"filiales-backend/internal/action"
	"filiales-backend/internal/admin"
	"filiales-backend/internal/audit"
	"filiales-backend/internal/auth"
	"filiales-backend/internal/casing"
	"filiales-backend/internal/config"
	"filiales-backend/internal/dashboard"
	"filiales-backend/internal/database"
	"filiales-backend/internal/forum"
	"filiales-backend/internal/geo"
	"filiales-backend/internal/logging"
	"filiales-backend/internal/member"
	"filiales-backend/internal/metrics"
	"filiales-backend/internal/models"
	"filiales-backend/internal/notification"
	"filiales-backend/internal/ratelimit"
	"filiales-backend/internal/response"
	"filiales-backend/internal/ticket"
	"filiales-backend/internal/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func New(cfg *config.Config) *fiber.App {
	metrics.Init()

	app := fiber.New(fiber.Config{
		AppName:      "filiales-backend",
		ErrorHandler: response.ErrorHandler(cfg.IsProduction()),
		// margen para los campos del multipart además de la imagen
		BodyLimit: int(cfg.UploadMaxSize) + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logging.RequestLogger())
	app.Use(metrics.Middleware())

	// CORS_ORIGINS es una lista separada por comas
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Use(casing.Normalize())

	app.Get("/health", healthHandler())
	app.Get("/metrics", metrics.Handler())
	if cfg.UploadPath != "" {
		app.Static(cfg.UploadBaseURL, cfg.UploadPath)
	}

	registerRoutes(app, cfg)
	return app
}

func healthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "error",
				"database": "unreachable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
	}
}

func registerRoutes(app *fiber.App, cfg *config.Config) {
	api := app.Group("/api")

	loginLimiter := ratelimit.New(cfg.LoginRatePerSecond, cfg.LoginRateBurst)

	// Públicas
	api.Post("/auth/register-super-admin", loginLimiter.ByIP(), auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", loginLimiter.ByIP(), auth.LoginHandler(cfg))
	api.Post("/auth/refresh", auth.RefreshHandler(cfg))

	protected := api.Group("", auth.JWTMiddleware(cfg))

	superAdmin := auth.RequireRole(models.RoleSuperAdmin)
	reviewers := auth.RequireRole(models.RoleSuperAdmin, models.RoleCoordinator)

	protected.Get("/auth/me", auth.MeHandler())
	protected.Put("/auth/password", auth.ChangePasswordHandler())

	// Filiales
	protected.Get("/branches", admin.ListBranchesHandler())
	protected.Get("/branches/:id", admin.GetBranchHandler())
	protected.Get("/branches/:id/stats", admin.BranchStatsHandler())
	protected.Post("/branches", superAdmin, admin.CreateBranchHandler())
	protected.Put("/branches/:id", superAdmin, admin.UpdateBranchHandler())
	protected.Delete("/branches/:id", superAdmin, admin.DeleteBranchHandler())
	protected.Post("/branches/:id/activate", superAdmin, admin.ActivateBranchHandler())

	// Usuarios
	users := protected.Group("/users", superAdmin)
	users.Get("/", admin.ListUsersHandler())
	users.Post("/", admin.CreateUserHandler())
	users.Put("/:id", admin.UpdateUserHandler())
	users.Post("/:id/deactivate", admin.DeactivateUserHandler())
	users.Post("/:id/activate", admin.ActivateUserHandler())

	// Integrantes
	members := protected.Group("/members")
	members.Get("/", member.ListMembersHandler())
	members.Get("/export", member.ExportMembersHandler())
	members.Post("/", member.CreateMemberHandler())
	members.Get("/:id", member.GetMemberHandler())
	members.Put("/:id", member.UpdateMemberHandler())
	members.Delete("/:id", member.DeleteMemberHandler())
	members.Post("/:id/deactivate", member.DeactivateMemberHandler())
	members.Post("/:id/reactivate", member.ReactivateMemberHandler())
	members.Get("/:id/inactivity", member.InactivityHistoryHandler())

	// Acciones
	actions := protected.Group("/actions")
	actions.Get("/", action.ListActionsHandler())
	actions.Post("/", action.CreateActionHandler())
	actions.Get("/:id", action.GetActionHandler())
	actions.Put("/:id", action.UpdateActionHandler())
	actions.Delete("/:id", action.DeleteActionHandler())

	// Solicitudes de entradas
	tickets := protected.Group("/ticket-requests")
	tickets.Get("/", ticket.ListTicketRequestsHandler())
	tickets.Post("/", ticket.CreateTicketRequestHandler())
	tickets.Get("/:id", ticket.GetTicketRequestHandler())
	tickets.Put("/:id", ticket.UpdateTicketRequestHandler())
	tickets.Delete("/:id", ticket.DeleteTicketRequestHandler())
	tickets.Post("/:id/approve", reviewers, ticket.ApproveTicketRequestHandler())
	tickets.Post("/:id/reject", reviewers, ticket.RejectTicketRequestHandler())

	// Foro
	forumGroup := protected.Group("/forum")
	forumGroup.Get("/topics", forum.ListTopicsHandler())
	forumGroup.Post("/topics", forum.CreateTopicHandler())
	forumGroup.Get("/topics/:id", forum.GetTopicHandler())
	forumGroup.Put("/topics/:id", forum.UpdateTopicHandler())
	forumGroup.Delete("/topics/:id", forum.DeleteTopicHandler())
	forumGroup.Post("/topics/:id/close", reviewers, forum.CloseTopicHandler())
	forumGroup.Post("/topics/:id/reopen", reviewers, forum.ReopenTopicHandler())
	forumGroup.Post("/topics/:id/replies", forum.CreateReplyHandler())
	forumGroup.Put("/replies/:id", forum.UpdateReplyHandler())
	forumGroup.Delete("/replies/:id", forum.DeleteReplyHandler())

	// Notificaciones
	notifications := protected.Group("/notifications")
	notifications.Get("/", notification.ListNotificationsHandler())
	notifications.Get("/unread-count", notification.UnreadCountHandler())
	notifications.Post("/read-all", notification.MarkAllReadHandler())
	notifications.Post("/:id/read", notification.MarkReadHandler())

	// Auditoría y tablero
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	protected.Get("/dashboard/summary", dashboard.SummaryHandler())
	protected.Get("/dashboard/actions-chart", dashboard.ActionsChartHandler())

	// Geografía
	geoClient := geo.NewClient(cfg.GeoAPIURL, cfg.GeoCacheTTL)
	protected.Get("/geo/provinces", geo.ProvincesHandler(geoClient))
	protected.Get("/geo/provinces/:id/localities", geo.LocalitiesHandler(geoClient))

	// Imágenes
	protected.Post("/uploads/images", upload.ImageHandler(cfg))
}
