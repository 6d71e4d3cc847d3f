package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"fuelstock/internal/domain/catalogs/item"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/domain/catalogs/warehouse"
	"fuelstock/internal/domain/ledger"
	"fuelstock/internal/domain/operations"
	"fuelstock/internal/domain/reports"
	"fuelstock/internal/infrastructure/cache"
	"fuelstock/internal/infrastructure/http/v1/handlers"
	"fuelstock/internal/infrastructure/http/v1/middleware"
	"fuelstock/internal/infrastructure/storage/postgres"
	"fuelstock/internal/infrastructure/storage/postgres/catalog_repo"
	"fuelstock/internal/infrastructure/storage/postgres/ledger_repo"
	"fuelstock/internal/infrastructure/storage/postgres/operation_repo"
	"fuelstock/internal/infrastructure/storage/postgres/report_repo"
	"fuelstock/pkg/logger"
	"fuelstock/pkg/numerator"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Redis     *redis.Client

	Logger       *logger.Logger
	JWTValidator middleware.JWTValidator
	Numerator    *numerator.Service

	// Auditor records applied and deleted operations; nil disables auditing.
	Auditor operations.Auditor

	// ReportCache caches report payloads and invalidates them on
	// ledger changes; nil disables caching.
	ReportCache *cache.ReportCache

	// Classifier maps balances to stock levels for status reports.
	Classifier *reports.Classifier
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Redis)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Domain wiring. Repos and services are created once and share the
	// transaction manager.
	baseHandler := handlers.NewBaseHandler()

	warehouseRepo := catalog_repo.NewWarehouseRepo(cfg.TxManager)
	warehouseService := warehouse.NewService(warehouseRepo, cfg.TxManager, cfg.Numerator, cfg.Logger)

	itemRepo := catalog_repo.NewItemRepo(cfg.TxManager)
	itemService := item.NewService(itemRepo, cfg.TxManager, cfg.Numerator, cfg.Logger)

	partyRepo := catalog_repo.NewPartyRepo(cfg.TxManager)
	partyService := party.NewService(partyRepo, cfg.TxManager, cfg.Numerator, cfg.Logger)

	var sink ledger.EventSink
	if cfg.ReportCache != nil {
		sink = cfg.ReportCache
	}
	ledgerRepo := ledger_repo.NewLedgerRepo(cfg.TxManager)
	ledgerService := ledger.NewService(ledgerRepo, sink, cfg.Logger)

	operationRepo := operation_repo.NewOperationRepo(cfg.TxManager)
	engine := operations.NewEngine(operations.EngineConfig{
		Repo:       operationRepo,
		Ledger:     ledgerService,
		Warehouses: warehouseService,
		Items:      itemService,
		Parties:    partyService,
		TxManager:  cfg.TxManager,
		Numerator:  cfg.Numerator,
		Auditor:    cfg.Auditor,
		Logger:     cfg.Logger,
	})

	var reportCache reports.Cache
	if cfg.ReportCache != nil {
		reportCache = cfg.ReportCache
	}
	reportRepo := report_repo.NewReportRepo(cfg.TxManager)
	reportService := reports.NewService(reportRepo, reportCache, cfg.Classifier, cfg.Logger)

	// Protected API
	api := router.Group("/api")
	api.Use(middleware.Auth(cfg.JWTValidator))
	{
		inventory := api.Group("/inventory")
		{
			RegisterCatalogRoutes(inventory.Group("/warehouse"), handlers.NewWarehouseHandler(baseHandler, warehouseService))
			RegisterCatalogRoutes(inventory.Group("/item"), handlers.NewItemHandler(baseHandler, itemService))
			RegisterCatalogRoutes(inventory.Group("/station"), handlers.NewPartyHandler(baseHandler, partyService, party.KindStation))

			stockHandler := handlers.NewStockHandler(baseHandler, ledgerService)
			stock := inventory.Group("/warehouse-item")
			stock.GET("", stockHandler.List)
			stock.POST("", stockHandler.Create)
			stock.GET("/:id", stockHandler.Get)
		}

		accounts := api.Group("/accounts")
		{
			RegisterCatalogRoutes(accounts.Group("/suppliers"), handlers.NewPartyHandler(baseHandler, partyService, party.KindSupplier))
			RegisterCatalogRoutes(accounts.Group("/beneficiaries"), handlers.NewPartyHandler(baseHandler, partyService, party.KindBeneficiary))
		}

		ops := api.Group("/operations")
		{
			RegisterOperationRoutes(ops.Group("/supply"), handlers.NewOperationHandler(baseHandler, engine, operations.KindSupply))
			RegisterOperationRoutes(ops.Group("/export"), handlers.NewOperationHandler(baseHandler, engine, operations.KindExport))
			RegisterOperationRoutes(ops.Group("/transfer"), handlers.NewOperationHandler(baseHandler, engine, operations.KindTransfer))
			RegisterOperationRoutes(ops.Group("/damage"), handlers.NewOperationHandler(baseHandler, engine, operations.KindDamage))
			RegisterOperationRoutes(ops.Group("/return_supply"), handlers.NewOperationHandler(baseHandler, engine, operations.KindReturnSupply))
			RegisterOperationRoutes(ops.Group("/return_export"), handlers.NewOperationHandler(baseHandler, engine, operations.KindReturnExport))

			// Modifications are corrections, not documents of record:
			// they can be created and inspected but never deleted.
			modifyHandler := handlers.NewOperationHandler(baseHandler, engine, operations.KindModifySupply)
			modify := ops.Group("/modify-supply")
			modify.GET("", modifyHandler.List)
			modify.POST("", modifyHandler.Create)
			modify.GET("/:id", modifyHandler.Get)
		}

		reportHandler := handlers.NewReportHandler(baseHandler, reportService)
		reportRoutes := api.Group("/reports")
		{
			reportRoutes.GET("/general-warehouse", reportHandler.GeneralWarehouse)
			reportRoutes.GET("/general-item", reportHandler.GeneralItem)
			reportRoutes.GET("/item-status", reportHandler.ItemStatus)
			reportRoutes.GET("/warehouse-status", reportHandler.WarehouseStatus)
			reportRoutes.GET("/supplier-operations", reportHandler.SupplierOperations)
			reportRoutes.GET("/beneficiary-operations", reportHandler.BeneficiaryOperations)
			reportRoutes.GET("/stations-operations", reportHandler.StationOperations)
		}
	}

	return router
}
