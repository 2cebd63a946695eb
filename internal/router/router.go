package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/config"
	"github.com/uid0/openmakersuite/internal/handler"
	"github.com/uid0/openmakersuite/internal/infra"
	"github.com/uid0/openmakersuite/internal/middleware"
	"github.com/uid0/openmakersuite/internal/model"
	"github.com/uid0/openmakersuite/internal/repository"
	"github.com/uid0/openmakersuite/internal/service"
	"github.com/uid0/openmakersuite/internal/worker"
)

// Deps carries the wired services the server entrypoint also needs for
// the worker pool and cron.
type Deps struct {
	Engine    *gin.Engine
	LeadTimes service.LeadTimeService
	Webhook   *infra.WebhookClient
	Mailer    *infra.Mailer
}

// New wires all dependencies and returns the configured engine plus the
// services shared with the background workers.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, webhookCB *infra.CircuitBreaker) *Deps {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	webhook := infra.NewWebhookClient(cfg.WebhookURL, webhookCB)
	mailer := infra.NewMailer(cfg)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	linkRepo := repository.NewSupplierLinkRepository(db)
	historyRepo := repository.NewPriceHistoryRepository(db)
	reorderRepo := repository.NewReorderRepository(db)
	usageRepo := repository.NewUsageLogRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	locationRepo := repository.NewLocationRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours, cfg.JWTRefreshHours)
	catalogSvc := service.NewCatalogService(supplierRepo, linkRepo, historyRepo, itemRepo, dispatcher)
	leadTimeSvc := service.NewLeadTimeService(reorderRepo, itemRepo, linkRepo, cfg.DefaultLeadTimeDays)
	inventorySvc := service.NewInventoryService(itemRepo, usageRepo, movementRepo, categoryRepo, locationRepo, dispatcher, cfg.AlertEmail)
	reorderSvc := service.NewReorderService(reorderRepo, itemRepo, movementRepo, catalogSvc, leadTimeSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	itemsH := handler.NewItemHandler(inventorySvc)
	suppliersH := handler.NewSupplierHandler(catalogSvc)
	reordersH := handler.NewReorderHandler(reorderSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, webhook))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleMember)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		// Items — members can read, log usage, and see what's running low
		v1.GET("/items", anyRole, itemsH.List)
		v1.GET("/items/low-stock", anyRole, itemsH.LowStock)
		v1.GET("/items/:id", anyRole, itemsH.Get)
		v1.POST("/items/:id/usage", anyRole, itemsH.LogUsage)
		v1.GET("/items/:id/usage", anyRole, itemsH.ListUsage)
		v1.GET("/items/:id/reorders", anyRole, reordersH.ListByItem)
		v1.GET("/items/:id/reorders/active", anyRole, reordersH.ActiveRequest)
		v1.GET("/items/:id/reorder-status", anyRole, reordersH.Status)
		v1.GET("/items/:id/supplier-links", anyRole, suppliersH.ListLinksByItem)
		// Item writes — admin only
		v1.POST("/items", adminOnly, itemsH.Create)
		v1.PUT("/items/:id", adminOnly, itemsH.Update)
		v1.PATCH("/items/:id/stock", adminOnly, itemsH.AdjustStock)
		v1.GET("/items/:id/movements", adminOnly, itemsH.ListMovements)

		// Reorder workflow — any member submits, admins run the queue
		v1.POST("/reorders", anyRole, reordersH.Submit)
		v1.GET("/reorders", anyRole, reordersH.List)
		v1.GET("/reorders/summary", anyRole, reordersH.Summary)
		v1.GET("/reorders/pending", adminOnly, reordersH.Pending)
		v1.GET("/reorders/pending/by-supplier", adminOnly, reordersH.PendingBySupplier)
		v1.GET("/reorders/:id", anyRole, reordersH.Get)
		v1.POST("/reorders/:id/approve", adminOnly, reordersH.Approve)
		v1.POST("/reorders/:id/ordered", adminOnly, reordersH.MarkOrdered)
		v1.POST("/reorders/:id/received", adminOnly, reordersH.MarkReceived)
		v1.POST("/reorders/:id/cancel", adminOnly, reordersH.Cancel)

		// Suppliers and pricing — admin only
		suppliers := v1.Group("/suppliers", adminOnly)
		{
			suppliers.POST("", suppliersH.Create)
			suppliers.GET("", suppliersH.List)
			suppliers.GET("/:id", suppliersH.Get)
			suppliers.PUT("/:id", suppliersH.Update)
		}
		links := v1.Group("/supplier-links", adminOnly)
		{
			links.POST("", suppliersH.CreateLink)
			links.GET("/:id", suppliersH.GetLink)
			links.PUT("/:id", suppliersH.UpdateLink)
			links.GET("/:id/price-history", suppliersH.PriceHistory)
		}

		// Categories and locations — admin writes, everyone reads
		v1.GET("/categories", anyRole, itemsH.ListCategories)
		v1.POST("/categories", adminOnly, itemsH.CreateCategory)
		v1.GET("/locations", anyRole, itemsH.ListLocations)
		v1.POST("/locations", adminOnly, itemsH.CreateLocation)

		// User management — admin only
		v1.POST("/users", adminOnly, authH.CreateUser)
	}

	return &Deps{
		Engine:    r,
		LeadTimes: leadTimeSvc,
		Webhook:   webhook,
		Mailer:    mailer,
	}
}
