// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/core/capability"
	"partsledger/internal/domain/analytics"
	"partsledger/internal/domain/auth"
	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/domain/catalogs/part"
	"partsledger/internal/domain/catalogs/supplier"
	"partsledger/internal/domain/catalogs/truck"
	"partsledger/internal/domain/documents/order"
	"partsledger/internal/domain/documents/returns"
	"partsledger/internal/domain/movements"
	"partsledger/internal/domain/partslist"
	"partsledger/internal/infrastructure/http/v1/handlers"
	"partsledger/internal/infrastructure/http/v1/middleware"
	"partsledger/internal/infrastructure/storage/postgres"
	"partsledger/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// Gate authorizes operations per capability key.
	Gate capability.Gate

	AuthService      *auth.Service
	PartService      *part.Service
	SupplierService  *supplier.Service
	TruckService     *truck.Service
	JobService       *job.Service
	PartsListService *partslist.Service
	OrderService     *order.Service
	ReturnService    *returns.Service
	MovementService  *movements.Service
	AnalyticsService *analytics.Service
	ActivityLog      *postgres.ActivityLog
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware, order matters.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints, no auth.
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", authHandler.Login)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.AuthService))

		registerAuthRoutes(protected, cfg, authHandler)
		registerCatalogRoutes(protected, cfg, base)
		registerDocumentRoutes(protected, cfg, base)
		registerMovementRoutes(protected, cfg, base)
	}

	return router
}

func requires(cfg RouterConfig, cap string) gin.HandlerFunc {
	return middleware.RequireCapability(cfg.Gate, cap)
}

// registerAuthRoutes registers account management endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig, authHandler *handlers.AuthHandler) {
	rg.POST("/auth/change-password", authHandler.ChangePassword)

	admin := requires(cfg, capability.Admin)
	users := rg.Group("/users")
	{
		users.GET("", admin, authHandler.ListUsers)
		users.POST("", admin, authHandler.CreateUser)
		users.POST("/:id/active", admin, authHandler.SetUserActive)
	}
}

// registerCatalogRoutes registers catalog endpoints. Reads are open to any
// authenticated user; writes need catalog_manage.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig, base *handlers.BaseHandler) {
	manage := requires(cfg, capability.CatalogManage)

	partHandler := handlers.NewPartHandler(base, cfg.PartService, cfg.AnalyticsService)
	parts := rg.Group("/parts")
	{
		parts.GET("", partHandler.List)
		parts.GET("/low-stock", partHandler.LowStock)
		parts.GET("/search", partHandler.Search)
		parts.GET("/:id", partHandler.Get)
		parts.GET("/:id/stock", partHandler.Stock)
		parts.GET("/:id/supplier-chain", partHandler.SupplierChain)
		parts.GET("/:id/suggested-return-supplier", partHandler.SuggestedReturnSupplier)
		parts.POST("", manage, partHandler.Create)
		parts.PUT("/:id", manage, partHandler.Update)
		parts.DELETE("/:id", manage, partHandler.Delete)
		parts.POST("/:id/restore", manage, partHandler.Restore)
	}

	supplierHandler := handlers.NewSupplierHandler(base, cfg.SupplierService)
	suppliers := rg.Group("/suppliers")
	{
		suppliers.GET("", supplierHandler.List)
		suppliers.GET("/supply-houses", supplierHandler.SupplyHouses)
		suppliers.GET("/:id", supplierHandler.Get)
		suppliers.POST("", manage, supplierHandler.Create)
		suppliers.PUT("/:id", manage, supplierHandler.Update)
		suppliers.DELETE("/:id", manage, supplierHandler.Delete)
		suppliers.POST("/:id/restore", manage, supplierHandler.Restore)
	}

	truckHandler := handlers.NewTruckHandler(base, cfg.TruckService, cfg.AnalyticsService)
	trucks := rg.Group("/trucks")
	{
		trucks.GET("", truckHandler.List)
		trucks.GET("/active", truckHandler.Active)
		trucks.GET("/:id", truckHandler.Get)
		trucks.GET("/:id/inventory", truckHandler.Inventory)
		trucks.POST("", manage, truckHandler.Create)
		trucks.PUT("/:id", manage, truckHandler.Update)
		trucks.POST("/:id/active", manage, truckHandler.SetActive)
		trucks.DELETE("/:id", manage, truckHandler.Delete)
		trucks.POST("/:id/restore", manage, truckHandler.Restore)
	}

	jobHandler := handlers.NewJobHandler(base, cfg.JobService)
	jobs := rg.Group("/jobs")
	{
		jobs.GET("", jobHandler.List)
		jobs.GET("/by-status/:status", jobHandler.ByStatus)
		jobs.GET("/:id", jobHandler.Get)
		jobs.GET("/:id/parts", jobHandler.Parts)
		jobs.GET("/:id/total-cost", jobHandler.TotalCost)
		jobs.POST("", manage, jobHandler.Create)
		jobs.PUT("/:id", manage, jobHandler.Update)
		jobs.POST("/:id/complete", manage, jobHandler.Complete)
		jobs.POST("/:id/cancel", manage, jobHandler.Cancel)
		jobs.DELETE("/:id", manage, jobHandler.Delete)
		jobs.POST("/:id/restore", manage, jobHandler.Restore)
	}

	listHandler := handlers.NewPartsListHandler(base, cfg.PartsListService, cfg.AnalyticsService)
	lists := rg.Group("/parts-lists")
	{
		lists.GET("", listHandler.List)
		lists.GET("/by-job/:jobId", listHandler.ByJob)
		lists.GET("/:id", listHandler.Get)
		lists.GET("/:id/items", listHandler.ListItems)
		lists.GET("/:id/shortfall", listHandler.Shortfall)
		lists.POST("", manage, listHandler.Create)
		lists.PUT("/:id", manage, listHandler.Update)
		lists.PUT("/:id/items", manage, listHandler.SetItem)
		lists.DELETE("/:id/items/:itemId", manage, listHandler.RemoveItem)
		lists.DELETE("/:id", manage, listHandler.Delete)
		lists.POST("/:id/restore", manage, listHandler.Restore)
	}
}

// registerDocumentRoutes registers order and return endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig, base *handlers.BaseHandler) {
	orderHandler := handlers.NewOrderHandler(base, cfg.OrderService, cfg.ActivityLog)
	orders := rg.Group("/orders")
	{
		orders.GET("", orderHandler.List)
		orders.GET("/:id", orderHandler.Get)
		orders.GET("/:id/items", orderHandler.ListItems)
		orders.POST("", requires(cfg, capability.OrdersCreate), orderHandler.Create)
		orders.POST("/:id/items", requires(cfg, capability.OrdersCreate), orderHandler.AddItem)
		orders.PUT("/:id/items/:itemId", requires(cfg, capability.OrdersCreate), orderHandler.UpdateItem)
		orders.DELETE("/:id/items/:itemId", requires(cfg, capability.OrdersCreate), orderHandler.RemoveItem)
		orders.POST("/:id/submit", requires(cfg, capability.OrdersSubmit), orderHandler.Submit)
		orders.POST("/:id/receive", requires(cfg, capability.OrdersReceive), orderHandler.Receive)
		orders.POST("/:id/cancel", requires(cfg, capability.OrdersCancel), orderHandler.Cancel)
		orders.POST("/:id/close", requires(cfg, capability.OrdersClose), orderHandler.Close)
		orders.DELETE("/:id", requires(cfg, capability.OrdersCancel), orderHandler.Delete)
	}

	returnHandler := handlers.NewReturnHandler(base, cfg.ReturnService, cfg.ActivityLog)
	returnCap := requires(cfg, capability.OrdersReturn)
	rets := rg.Group("/returns")
	{
		rets.GET("", returnHandler.List)
		rets.GET("/:id", returnHandler.Get)
		rets.GET("/:id/items", returnHandler.ListItems)
		rets.POST("", returnCap, returnHandler.Create)
		rets.POST("/:id/picked-up", returnCap, returnHandler.MarkPickedUp)
		rets.POST("/:id/credit", returnCap, returnHandler.MarkCreditReceived)
		rets.POST("/:id/cancel", returnCap, returnHandler.Cancel)
		rets.DELETE("/:id", returnCap, returnHandler.Delete)
	}

	activityHandler := handlers.NewActivityHandler(base, cfg.ActivityLog)
	rg.GET("/activity/:entityType/:id", activityHandler.EntityHistory)
}

// registerMovementRoutes registers transfer, consumption, and truck return
// endpoints.
func registerMovementRoutes(rg *gin.RouterGroup, cfg RouterConfig, base *handlers.BaseHandler) {
	movementHandler := handlers.NewMovementHandler(base, cfg.MovementService)
	transfer := requires(cfg, capability.TrucksTransfer)

	transfers := rg.Group("/transfers")
	{
		transfers.GET("", movementHandler.ListTransfers)
		transfers.POST("", transfer, movementHandler.CreateTransfer)
		transfers.POST("/:id/receive", transfer, movementHandler.ReceiveTransfer)
		transfers.POST("/:id/cancel", transfer, movementHandler.CancelTransfer)
	}

	rg.POST("/consume", requires(cfg, capability.TrucksConsume), movementHandler.Consume)
	rg.POST("/truck-returns", transfer, movementHandler.TruckReturn)
}
