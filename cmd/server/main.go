package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/lexportal/collabsync/internal/config"
	"github.com/lexportal/collabsync/internal/database"
	"github.com/lexportal/collabsync/internal/handlers"
	"github.com/lexportal/collabsync/internal/middleware"
	"github.com/lexportal/collabsync/internal/notify"
	"github.com/lexportal/collabsync/internal/realtime"
	"github.com/lexportal/collabsync/internal/services"
	"github.com/lexportal/collabsync/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/lexportal/collabsync/docs/api" // Swagger docs
)

// @title CollabSync API
// @version 1.0.0
// @description Collaborative document session, presence, edit and comment coordination service
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://www.lexportal.io
// @contact.email dev@lexportal.io

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Notification fan-out worker
	dispatcher := notify.NewDispatcher(db, zlog, cfg.NotifyQueueSize)
	defer dispatcher.Close()

	// Real-time transport hand-off
	publisher := newPublisher(cfg, zlog)
	defer func() { _ = publisher.Close() }()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("collabsync")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")

	// Version middleware
	api.Use(middleware.VersionMiddleware())

	// Create handlers
	healthHandler := &handlers.HealthHandler{Config: cfg, DB: db}
	collabHandler := &handlers.CollabHandler{
		DB:             db,
		Realtime:       publisher,
		SessionTimeout: cfg.SessionTimeout,
	}
	commentHandler := &handlers.CommentHandler{
		DB:       db,
		Notifier: dispatcher,
		Realtime: publisher,
	}
	notificationHandler := &handlers.NotificationHandler{DB: db}
	adminHandler := &handlers.AdminHandler{DB: db}

	// Health
	api.Get("/health", healthHandler.Check)

	// Collaboration routes (all require user authentication)
	collab := api.Group("/collab", middleware.AuthUser(cfg))
	collab.Post("/:document/join", collabHandler.Join)
	collab.Post("/:document/leave", collabHandler.Leave)
	collab.Post("/:document/cursor", collabHandler.Cursor)
	collab.Get("/:document/collaborators", collabHandler.Collaborators)
	collab.Post("/:document/edit", collabHandler.Edit)

	// Comment routes
	collab.Post("/:document/comments", commentHandler.Add)
	collab.Get("/:document/comments", commentHandler.List)
	collab.Post("/:document/comments/:comment/resolve", commentHandler.Resolve)
	collab.Delete("/:document/comments/:comment", commentHandler.Delete)

	// Notification inbox
	notifications := api.Group("/notifications", middleware.AuthUser(cfg))
	notifications.Get("/", notificationHandler.List)
	notifications.Post("/:notification/read", notificationHandler.MarkRead)

	// Admin-only provisioning routes
	admin := api.Group("/admin", middleware.AuthAdmin(cfg))
	admin.Post("/workspaces", adminHandler.CreateWorkspace)
	admin.Put("/workspaces/:workspace/members", adminHandler.UpsertMembers)
	admin.Post("/documents", adminHandler.CreateDocument)
	admin.Put("/documents/:document/lock", adminHandler.SetLock)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Presence expiry sweep. Sessions past the inactivity timeout read as
	// offline immediately; the sweep persists that state.
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	go runReaper(reaperCtx, db, cfg, zlog)

	// Initialize Authorizer (will be done on first auth request)
	log.Printf("Authorizer will be initialized on first authenticated request")

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		stopReaper()
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// newPublisher selects the configured real-time transport.
func newPublisher(cfg *config.Config, zlog *zap.Logger) realtime.Publisher {
	switch cfg.Transport {
	case "nats":
		pub, err := realtime.NewNATSPublisher(cfg.NatsURL, cfg.NatsName, zlog)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		return pub
	case "redis":
		pub, err := realtime.NewRedisPublisher(cfg.RedisURL, zlog)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		return pub
	default:
		return realtime.NoopPublisher{}
	}
}

// runReaper periodically marks sessions past the inactivity timeout offline.
func runReaper(ctx context.Context, db *gorm.DB, cfg *config.Config, zlog *zap.Logger) {
	ticker := time.NewTicker(cfg.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reaped, err := services.ReapExpiredSessions(db, cfg.SessionTimeout)
			if err != nil {
				zlog.Warn("session reap failed", zap.Error(err))
				continue
			}
			if reaped > 0 {
				zlog.Info("reaped expired sessions", zap.Int64("count", reaped))
			}
		}
	}
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Middleware errors carry their own status and type
	var ce *types.CustomError
	if errors.As(err, &ce) {
		code = ce.Code
		message = ce.Message
		errorType = ce.Type
	}

	// Check for version errors
	versionError := false
	if code == fiber.StatusConflict || (message != "" && len(message) >= 9 && message[:9] == "E_VERSION") {
		versionError = true
		errorType = "version"
		code = fiber.StatusConflict
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       code,
		"message":      message,
		"ok":           false,
		"versionError": versionError,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         errorType,
	})
}
