package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/plnr-app/dayplanner/internal/api/http"
	"github.com/plnr-app/dayplanner/internal/config"
	"github.com/plnr-app/dayplanner/internal/planner"
	"github.com/plnr-app/dayplanner/internal/store"
	"github.com/plnr-app/dayplanner/internal/uploads"
	"github.com/plnr-app/dayplanner/internal/weather"
)

func main() {
	// Load configuration (reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// SQLite store; migrations run on open.
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	// Shared HTTP client for outbound weather calls.
	httpClient := &http.Client{
		Timeout: cfg.UpstreamTimeout,
	}

	plannerSvc := planner.NewService(st)
	gateway := weather.NewGateway(httpClient)

	uploadSvc, err := uploads.NewService(cfg.UploadDir, st)
	if err != nil {
		log.Fatalf("failed to init uploads: %v", err)
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "dayplanner",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "dayplanner",
		})
	})

	// Uploaded images are served directly by filename.
	app.Static("/uploads", uploadSvc.Dir())

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Planner:       plannerSvc,
		Weather:       gateway,
		Uploads:       uploadSvc,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
