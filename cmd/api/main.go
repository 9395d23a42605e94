package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/pos-inventario-api/internal/application/catalog"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/application/purchasing"
	"github.com/jhoicas/pos-inventario-api/internal/application/sales"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-inventario-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pos-inventario-api/internal/interfaces/http"
	"github.com/jhoicas/pos-inventario-api/pkg/config"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
	"github.com/jhoicas/pos-inventario-api/pkg/telemetry"
)

var version = "dev" // -ldflags "-X main.version=..."

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Antes de construir los casos de uso: los instrumentos se toman de los proveedores globales.
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SamplingRatio:  cfg.Telemetry.SamplingRatio,
		MetricInterval: cfg.Telemetry.MetricInterval,
		ServiceName:    cfg.App.Name,
		ServiceVersion: version,
	}, log.Named("telemetry"))
	if err != nil {
		log.Fatal().Err(err).Msg("telemetría")
	}

	var (
		txRunner inventory.TxRunner
		repos    repository.Set
	)
	switch cfg.App.StoreDriver {
	case config.StoreDriverMemory:
		// Modo desarrollo: los datos se pierden al reiniciar.
		store := memory.New(cfg.DB.LockTimeout)
		txRunner = memory.NewTxRunner(store)
		repos = store.Repos()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(pool, log.Named("migrate")); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		txRunner = postgres.NewTxRunner(pool, cfg.DB.LockTimeout)
		repos = postgres.Repos(pool)
	}

	mutator := inventory.NewStockMutator(log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/health"
	})))

	// Swagger UI en /docs, solo si el archivo existe.
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "POS Inventario API",
		}))
	} else {
		log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:       catalog.NewProductUseCase(txRunner, repos, mutator, log),
		CategoryUC:      catalog.NewCategoryUseCase(txRunner, repos, log),
		SupplierUC:      purchasing.NewSupplierUseCase(txRunner, repos, log),
		SaleUC:          sales.NewSaleUseCase(txRunner, repos, mutator, log),
		PurchaseOrderUC: purchasing.NewPurchaseOrderUseCase(txRunner, repos, mutator, log),
		AdjustmentUC:    inventory.NewAdjustmentUseCase(txRunner, repos, mutator, log),
		LedgerUC:        inventory.NewLedgerUseCase(txRunner, repos, log),
		Replenishment:   inventory.NewReplenishmentUseCase(repos.Products),
		JWTSecret:       cfg.JWT.Secret,
		Logger:          log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de telemetría")
	}

	log.Info().Msg("aplicación detenida")
}
