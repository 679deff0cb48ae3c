package main

import (
	"os"

	"github.com/crispincharbel-source/cierp/internal/database"
	"github.com/crispincharbel-source/cierp/internal/handler"
	"github.com/crispincharbel-source/cierp/internal/middleware"
	"github.com/crispincharbel-source/cierp/internal/repository"
	"github.com/crispincharbel-source/cierp/internal/service"
	"github.com/crispincharbel-source/cierp/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           ERP Core API
// @version         1.0
// @description     Document workflow engine with a double-entry ledger: sales, purchasing, manufacturing, inventory and accounting.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		logrus.Info("No configs/.env file found or error loading it")
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if os.Getenv("GIN_MODE") != "release" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
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
		logrus.WithError(err).Fatal("Database connection failed")
	}
	logrus.Info("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	accountRepo := repository.NewAccountRepository(db)
	moveRepo := repository.NewMoveRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	seqRepo := repository.NewSequenceRepository(db)
	stockRepo := repository.NewStockRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	saleRepo := repository.NewSaleOrderRepository(db)
	purchaseRepo := repository.NewPurchaseOrderRepository(db)
	productionRepo := repository.NewProductionRepository(db)

	accountService := service.NewAccountService(accountRepo)
	postingService := service.NewPostingService(moveRepo, paymentRepo, seqRepo, accountService, txManager)
	stockService := service.NewStockService(stockRepo, tenantRepo, seqRepo, txManager, wsHub)
	saleService := service.NewSaleService(saleRepo, moveRepo, seqRepo, stockService, txManager, wsHub)
	purchaseService := service.NewPurchaseService(purchaseRepo, moveRepo, seqRepo, stockService, txManager)
	productionService := service.NewProductionService(productionRepo, seqRepo, stockService, txManager)
	authService := service.NewAuthService(tenantRepo, stockService, txManager, middleware.GetJWTSecret())

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	saleHandler := handler.NewSaleHandler(saleService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	productionHandler := handler.NewProductionHandler(productionService)
	accountingHandler := handler.NewAccountingHandler(postingService, accountService)
	stockHandler := handler.NewStockHandler(stockService)

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
	authHandler.RegisterRoutes(router.Group(""))
	saleHandler.RegisterRoutes(router.Group(""))
	purchaseHandler.RegisterRoutes(router.Group(""))
	productionHandler.RegisterRoutes(router.Group(""))
	accountingHandler.RegisterRoutes(router.Group(""))
	stockHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logrus.Infof("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.WithError(err).Fatal("Server failed")
	}
}
