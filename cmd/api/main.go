package main

import (
	"context"
	"log"
	"os"

	_ "storehub/api/swagger" // swagger docs
	"storehub/internal/database"
	"storehub/internal/handler"
	"storehub/internal/middleware"
	"storehub/internal/repository"
	"storehub/internal/service"
	"storehub/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           StoreHub API
// @version         1.0
// @description     Back-office API for catalog, stock and order workflow management.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	rbacRepo := repository.NewRBACRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authzService := service.NewAuthzService(rbacRepo)
	userService := service.NewUserService(userRepo, tokenRepo, rbacRepo)
	rbacService := service.NewRBACService(rbacRepo, authzService, txManager)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, supplierRepo, auditRepo, txManager)
	warehouseService := service.NewWarehouseService(warehouseRepo, inventoryRepo, auditRepo, txManager)
	receiptService := service.NewReceiptService(receiptRepo, productRepo, supplierRepo, warehouseRepo, inventoryRepo, auditRepo, txManager, wsHub)
	orderService := service.NewOrderService(orderRepo, productRepo, auditRepo, authzService, txManager, wsHub)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(db)

	// Permission middleware resolves through the authorization service
	middleware.InitPermissionMiddleware(authzService)

	// Seed default modules, permissions and the built-in admin role
	if err := rbacService.SeedDefaults(context.Background()); err != nil {
		log.Fatalf("Failed to seed authorization defaults: %v", err)
	}
	if err := userService.EnsureAdminUser(context.Background(), os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		log.Printf("WARNING: Failed to ensure admin user: %v", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	rbacHandler := handler.NewRBACHandler(rbacService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	warehouseHandler := handler.NewWarehouseHandler(warehouseService)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	orderHandler := handler.NewOrderHandler(orderService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	rbacHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	warehouseHandler.RegisterRoutes(router.Group(""))
	receiptHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
