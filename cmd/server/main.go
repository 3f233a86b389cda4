package main

import (
	"log"
	"time"

	"tarp_ops/internal/config"
	"tarp_ops/internal/database"
	"tarp_ops/internal/handlers"
	"tarp_ops/internal/locking"
	"tarp_ops/internal/migrations"
	"tarp_ops/internal/redis"
	"tarp_ops/internal/repository"
	"tarp_ops/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Seed default data
	if err := migrations.Seed(db); err != nil {
		log.Fatal("Failed to seed database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)
	orderItemRepo := repository.NewOrderItemRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	dispatchRepo := repository.NewDispatchRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Per-order lock registry shared by order and dispatch services
	locks := locking.NewKeyed()

	// Initialize services
	orderService := services.NewOrderService(orderRepo, orderItemRepo, dispatchRepo, locks, redisClient)
	inventoryService := services.NewInventoryService(inventoryRepo, decimal.NewFromFloat(cfg.GSTRate))
	dispatchService := services.NewDispatchService(dispatchRepo, orderRepo, inventoryRepo, locks, redisClient)
	reportService := services.NewReportService(orderRepo, inventoryRepo, dispatchRepo, redisClient, time.Duration(cfg.CacheTTL)*time.Second)
	userService := services.NewUserService(userRepo)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderService, cfg.DefaultPageLimit)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, reportService, cfg.DefaultPageLimit)
	dispatchHandler := handlers.NewDispatchHandler(dispatchService, cfg.DefaultPageLimit)
	reportHandler := handlers.NewReportHandler(reportService, inventoryService)
	userHandler := handlers.NewUserHandler(userService)

	// Setup routes
	router := gin.Default()

	api := router.Group("/api")
	{
		orders := api.Group("/orders")
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/book", orderHandler.ListOrders)
			orders.GET("/pending", orderHandler.ListPending)
			orders.GET("/dispatched", orderHandler.ListDispatched)
			orders.GET("/cancelled", orderHandler.ListCancelled)
			orders.GET("/search-orders-book", orderHandler.SearchOrders)
			orders.GET("/filter", orderHandler.SearchOrders)
			orders.GET("/number/:orderNumber", orderHandler.GetOrderByNumber)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.DELETE("/:id", orderHandler.DeleteOrder)
			orders.PATCH("/:id/status", orderHandler.UpdateStatus)
			orders.PATCH("/:id/delay", orderHandler.SetDelayed)
			orders.PATCH("/:id/delivery-mode", orderHandler.SetDeliveryMode)
			orders.POST("/:id/items", orderHandler.AddItem)
			orders.PUT("/:id/items/:itemId", orderHandler.EditItem)
			orders.DELETE("/:id/items/:itemId", orderHandler.RemoveItem)
		}

		inventory := api.Group("/inventory")
		{
			inventory.POST("/raw-materials", inventoryHandler.AddRawMaterial)
			inventory.GET("/raw-materials", inventoryHandler.ListRawMaterials)
			inventory.POST("/finished-products", inventoryHandler.AddFinishedProduct)
			inventory.GET("/get-finished-products", inventoryHandler.ListFinishedProducts)
			inventory.GET("/alerts", inventoryHandler.LowStockAlerts)
			inventory.GET("/summary", inventoryHandler.Summary)
			inventory.GET("/search", inventoryHandler.Search)
			inventory.GET("/report", inventoryHandler.Report)
			inventory.GET("/:id", inventoryHandler.GetItem)
			inventory.PATCH("/:id/adjust", inventoryHandler.AdjustStock)
		}

		dispatch := api.Group("/dispatch")
		{
			dispatch.POST("", dispatchHandler.CreateDispatch)
			dispatch.GET("", dispatchHandler.ListDispatches)
			dispatch.GET("/today", dispatchHandler.Today)
			dispatch.GET("/delivered", dispatchHandler.ListDelivered)
			dispatch.GET("/in-transit", dispatchHandler.ListInTransit)
			dispatch.GET("/search-shipment", dispatchHandler.SearchShipments)
			dispatch.GET("/:id", dispatchHandler.GetDispatch)
			dispatch.PATCH("/:id/status", dispatchHandler.UpdateStatus)
		}

		api.GET("/dashboard", reportHandler.Dashboard)
		api.GET("/dashboard/search", reportHandler.Search)

		reports := api.Group("/reports")
		{
			reports.GET("/dashboard", reportHandler.Dashboard)
			reports.GET("/sales", reportHandler.Sales)
			reports.GET("/production", reportHandler.Production)
			reports.GET("/customers", reportHandler.Customers)
			reports.GET("/inventory", reportHandler.Inventory)
		}

		users := api.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.POST("", userHandler.CreateUser)
			users.PATCH("/:id/status", userHandler.UpdateUserStatus)
			users.DELETE("/:id", userHandler.DeleteUser)
		}
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
