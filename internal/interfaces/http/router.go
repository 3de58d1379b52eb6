package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/kardex-core/internal/application/audit"
	"github.com/tu-usuario/kardex-core/internal/application/auth"
	"github.com/tu-usuario/kardex-core/internal/application/billing"
	"github.com/tu-usuario/kardex-core/internal/application/catalog"
	"github.com/tu-usuario/kardex-core/internal/application/ledger"
	"github.com/tu-usuario/kardex-core/internal/application/period"
	"github.com/tu-usuario/kardex-core/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RecordMovement  *ledger.RecordMovementUseCase
	PeriodGuard     *period.GuardUseCase
	Reconciler      *audit.ReconcilerUseCase
	CatalogUC       *catalog.UseCase
	InvoiceConsumer *billing.InvoiceConsumer
	AuthUC          *auth.AuthUseCase
	JWTSecret       string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Catálogo: artículos y ubicaciones
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	items := protected.Group("/items")
	items.Post("/", catalogHandler.CreateItem)
	items.Get("/", catalogHandler.ListItems)
	items.Get("/:id", catalogHandler.GetItem)
	items.Delete("/:id", RequireRole(entity.RoleAdmin), catalogHandler.DeactivateItem)

	locations := protected.Group("/locations")
	locations.Post("/", catalogHandler.CreateLocation)
	locations.Get("/", catalogHandler.ListLocations)

	// Libro de movimientos y stock
	ledgerHandler := NewLedgerHandler(deps.RecordMovement)
	movements := protected.Group("/movements")
	movements.Post("/", ledgerHandler.RecordMovement)
	movements.Get("/item/:item_id", ledgerHandler.ListMovementsByItem)
	movements.Get("/location/:location_id", ledgerHandler.ListMovementsByLocation)

	stock := protected.Group("/stock")
	stock.Get("/low", catalogHandler.LowStock)
	stock.Put("/thresholds", catalogHandler.SetStockThresholds)
	stock.Get("/:item_id/:location_id", ledgerHandler.GetStock)

	// Períodos fiscales (cerrar y bloquear solo admin)
	periodHandler := NewPeriodHandler(deps.PeriodGuard)
	periods := protected.Group("/periods")
	periods.Get("/", periodHandler.List)
	periods.Get("/current", periodHandler.Current)
	periods.Get("/config", periodHandler.GetConfig)
	periods.Get("/:id/editable", periodHandler.Editable)
	periods.Put("/config", RequireRole(entity.RoleAdmin), periodHandler.UpdateConfig)
	periods.Post("/:id/close", RequireRole(entity.RoleAdmin), periodHandler.Close)
	periods.Post("/:id/lock", RequireRole(entity.RoleAdmin), periodHandler.Lock)

	// Conteos físicos (finalizar solo admin o auditor)
	auditHandler := NewAuditHandler(deps.Reconciler)
	audits := protected.Group("/audits")
	audits.Post("/", auditHandler.Start)
	audits.Get("/:id", auditHandler.Get)
	audits.Put("/:id/counts", auditHandler.UpdateCount)
	audits.Post("/:id/review", auditHandler.SubmitForReview)
	audits.Post("/:id/finalize", RequireRole(entity.RoleAdmin, entity.RoleAuditor), auditHandler.Finalize)

	// Webhook del colaborador de facturación
	billingHandler := NewBillingHandler(deps.InvoiceConsumer)
	billingGroup := protected.Group("/billing")
	billingGroup.Post("/invoice-created", billingHandler.InvoiceCreated)
}
