package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/kardex-core/internal/application/audit"
	"github.com/tu-usuario/kardex-core/internal/application/auth"
	"github.com/tu-usuario/kardex-core/internal/application/billing"
	"github.com/tu-usuario/kardex-core/internal/application/catalog"
	"github.com/tu-usuario/kardex-core/internal/application/ledger"
	"github.com/tu-usuario/kardex-core/internal/application/period"
	"github.com/tu-usuario/kardex-core/internal/infrastructure/notify"
	"github.com/tu-usuario/kardex-core/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/kardex-core/internal/interfaces/http"
	"github.com/tu-usuario/kardex-core/pkg/config"
	"github.com/tu-usuario/kardex-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	itemRepo := postgres.NewItemRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	periodRepo := postgres.NewPeriodRepository(pool)
	configRepo := postgres.NewFiscalConfigRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	bus := notify.NewBus(cfg.Inventory.NotifyBuffer, log)
	defer bus.Close()

	periodGuard := period.NewGuardUseCase(txRunner, periodRepo, configRepo, period.Defaults{
		LockAfterPeriods:   cfg.Inventory.LockAfterPeriods,
		AllowNegativeStock: cfg.Inventory.AllowNegativeStock,
	}, log)

	// Arranque en frío: configuración fiscal + período del mes presente.
	if err := periodGuard.EnsureCurrent(ctx); err != nil {
		log.Fatal().Err(err).Msg("inicialización de períodos fiscales")
	}

	recordMovementUC := ledger.NewRecordMovementUseCase(
		txRunner, itemRepo, locationRepo, stockRepo, movementRepo,
		configRepo, periodGuard, bus, log,
	)
	reconcilerUC := audit.NewReconcilerUseCase(auditRepo, stockRepo, locationRepo, recordMovementUC, log)
	catalogUC := catalog.NewUseCase(itemRepo, locationRepo, stockRepo)
	invoiceConsumer := billing.NewInvoiceConsumer(recordMovementUC, cfg.Inventory.DefaultLocationID, log)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Suscriptor de ejemplo del bus: deja rastro de cada cambio de stock.
	// Los consumidores reales (alertas de reposición, réplicas de lectura)
	// se suscriben igual y de-duplican por movement_id.
	events, stop := bus.Subscribe()
	defer stop()
	go func() {
		for ev := range events {
			log.Debug().
				Str("movement_id", ev.MovementID).
				Str("item_id", ev.ItemID).
				Str("location_id", ev.LocationID).
				Str("delta", ev.Delta.String()).
				Msg("stock modificado")
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Kardex API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RecordMovement:  recordMovementUC,
		PeriodGuard:     periodGuard,
		Reconciler:      reconcilerUC,
		CatalogUC:       catalogUC,
		InvoiceConsumer: invoiceConsumer,
		AuthUC:          authUC,
		JWTSecret:       cfg.JWT.Secret,
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

	log.Info().Msg("aplicación detenida")
}
