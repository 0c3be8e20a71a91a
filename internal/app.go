package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"beaconlight/internal/config"
	"beaconlight/internal/database"
	"beaconlight/internal/geo"
	apphttp "beaconlight/internal/http"
	"beaconlight/internal/logging"
)

// Application bundles the running server with its shared dependencies.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.Manager
	Fiber     *fiber.App
}

// NewApp creates an application from the environment configuration.
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates an application with the provided config.
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := logging.NewLogger(cfg)

	dbManager := database.NewManager(cfg, logger)
	if _, err := dbManager.Connect(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	geo.InitLogger(logger)

	handler := apphttp.NewHandler(cfg, logger, dbManager)

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: !cfg.IsDevelopment(),
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	MountRoutes(app, cfg, handler)

	return &Application{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Fiber:     app,
	}, nil
}

// StartAsync begins serving in the background. Listen errors after a
// clean shutdown are expected and only logged.
func (a *Application) StartAsync() error {
	go func() {
		addr := ":" + a.Config.AppPort
		a.Logger.Info("HTTP server listening", slog.String("addr", addr))
		if err := a.Fiber.Listen(addr); err != nil {
			a.Logger.Error("HTTP server stopped", slog.Any("error", err))
		}
	}()
	return nil
}

// Shutdown drains in-flight requests and releases the database.
func (a *Application) Shutdown(ctx context.Context) error {
	if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
		a.Logger.Error("Failed to shut down HTTP server", slog.Any("error", err))
		return err
	}
	return a.DBManager.Close()
}
