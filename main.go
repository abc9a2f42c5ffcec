package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/SquirrelThief/playhvz/config"
	"github.com/SquirrelThief/playhvz/handlers"
	"github.com/SquirrelThief/playhvz/middleware"
	"github.com/SquirrelThief/playhvz/services"
	"github.com/SquirrelThief/playhvz/store"
	"github.com/SquirrelThief/playhvz/utils"
	"github.com/SquirrelThief/playhvz/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	gw, err := openGateway(cfg)
	if err != nil {
		log.Fatal("failed to open store:", err)
	}
	st := store.New(gw)
	svc := services.NewContainer(st, cfg.SyncMaxRetries)

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB
	})
	app.Use(recover.New())
	app.Use(logger.New())

	// 🔐❗ GLOBAL: Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.GameServiceToken))

	allowedOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	handlers.SetupRoutes(app, handlers.New(svc))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers.NewReconcileWorker(st, svc.Membership, cfg.ReconcileInterval).Start(ctx)

	if cfg.R2.Enabled() {
		uploader, err := utils.NewR2Uploader(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		snapshots := services.NewSnapshotService(st, uploader)
		if _, err := snapshots.StartSnapshotScheduler(ctx, cfg.SnapshotInterval); err != nil {
			log.Fatal("failed to start snapshot scheduler:", err)
		}
		log.Printf("✅ Snapshot export running (every %s)", cfg.SnapshotInterval)
	} else {
		log.Println("⚠️  R2_BUCKET_NAME not set, snapshot export disabled")
	}

	go func() {
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost%s (store=%s)", cfg.Addr(), cfg.StoreDriver)
	log.Println("✅ GatewayAuthMiddleware enforced globally")
	log.Printf("✅ CORS configured for origins: %s", allowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func openGateway(cfg config.Config) (store.Gateway, error) {
	var dialector gorm.Dialector
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Println("⚠️  Using in-memory store; data is lost on restart")
		return store.NewMemoryGateway(), nil
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	gw := store.NewGormGateway(db)
	if err := gw.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return gw, nil
}
