package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	customlog "github.com/open-teleop/rovpilot/pkg/log"
	"github.com/open-teleop/rovpilot/services"
)

// Deps are the collaborators of the HTTP API. Journal may be nil.
type Deps struct {
	Status  StatusSource
	Config  services.ConfigService
	Journal JournalReader
	Input   EventSink
	Logger  customlog.Logger
}

// NewApp builds the fiber application with every route registered.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "rovpilot",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1 := app.Group("/api/v1")
	v1.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(d.Status.Latest())
	})
	v1.Get("/journal", journalHandler(d.Journal))
	RegisterConfigRoutes(v1, d.Config, d.Logger)

	ws := app.Group("/ws")
	ws.Use(func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/status", websocket.New(func(conn *websocket.Conn) {
		StatusWebSocketHandler(conn, d.Logger, d.Status)
	}))
	ws.Get("/control", websocket.New(func(conn *websocket.Conn) {
		ControlWebSocketHandler(conn, d.Logger, d.Input)
	}))

	d.Logger.Infof("Registered HTTP API routes")
	return app
}

func journalHandler(j JournalReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if j == nil {
			return fiber.NewError(fiber.StatusNotFound, "journal is disabled")
		}
		limit := c.QueryInt("limit", DefaultJournalLimit)
		if limit <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be positive")
		}
		if limit > MaxJournalLimit {
			limit = MaxJournalLimit
		}
		records, err := j.Recent(limit)
		if err != nil {
			return err
		}
		return c.JSON(records)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
