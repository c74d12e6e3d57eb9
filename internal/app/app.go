// Package app assembles the Fiber application from its dependencies.
package app

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"

	"github.com/lucas-ioliveira/ordering-system/internal/auth"
	"github.com/lucas-ioliveira/ordering-system/internal/config"
	"github.com/lucas-ioliveira/ordering-system/internal/handlers"
	"github.com/lucas-ioliveira/ordering-system/internal/metrics"
	"github.com/lucas-ioliveira/ordering-system/internal/middleware"
	"github.com/lucas-ioliveira/ordering-system/internal/repositories"
	"github.com/lucas-ioliveira/ordering-system/internal/services"
)

// Deps are the resources the application is built from.
type Deps struct {
	Config config.Config
	DB     *gorm.DB
	Logger *slog.Logger
	// Revocations defaults to an in-memory store.
	Revocations auth.RevocationStore
	// Events may be nil, which disables order events.
	Events services.EventPublisher
	// Clock defaults to time.Now.
	Clock func() time.Time
	// AccessLog receives the request log lines. Defaults to os.Stdout.
	AccessLog io.Writer
}

// NewApp wires repositories, services and handlers into a Fiber app.
func NewApp(deps Deps) (*fiber.App, error) {
	if deps.Revocations == nil {
		deps.Revocations = auth.NewMemoryRevocationStore()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.AccessLog == nil {
		deps.AccessLog = os.Stdout
	}

	// --- Repositories ---
	repos := repositories.NewRegistry(deps.DB)
	txManager := repositories.NewTxManager(deps.DB)

	// --- Services ---
	tokens, err := auth.NewTokenService(deps.Config.Auth, repos.Users(), deps.Revocations, auth.WithClock(deps.Clock))
	if err != nil {
		return nil, err
	}
	hasher := auth.NewBcryptHasher(deps.Config.Auth.BcryptCost)

	authService := services.NewAuthService(repos.Users(), hasher, tokens, deps.Logger)
	accountService := services.NewAccountService(repos.Users())
	orderService := services.NewOrderService(txManager, repos, deps.Events, deps.Logger)
	orderItemService := services.NewOrderItemService(txManager, repos, deps.Events, deps.Logger)

	// --- Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:      "ordering-system",
		ErrorHandler: handlers.ErrorHandler(deps.Logger),
	})

	// --- Middleware ---
	app.Use(fiberrecover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Output: deps.AccessLog,
	}))
	app.Use(middleware.Metrics())

	// --- Operational endpoints ---
	app.Get("/health", healthHandler(deps.DB))
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	authRequired := middleware.AuthRequired(authService)

	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1, authRequired)
	handlers.NewAccountHandler(accountService).RegisterRoutes(apiV1, authRequired)
	handlers.NewOrderHandler(orderService).RegisterRoutes(apiV1, authRequired)
	handlers.NewOrderItemHandler(orderItemService).RegisterRoutes(apiV1, authRequired)

	return app, nil
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "healthy"
		code := fiber.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			status = "unhealthy"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(handlers.Envelope{
			Message: status,
			Data: fiber.Map{
				"database": err == nil,
				"time":     time.Now().Format(time.RFC3339),
			},
		})
	}
}
