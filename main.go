package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/config"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/handlers"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/hub"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/kafka"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/media"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/middleware"
	rediswrap "github.com/Zhanbolat567/qoyu-coffee2/internal/redis"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"

	"github.com/gin-gonic/gin"
)

// Global logger instance
var log *logger.Logger

func main() {
	log = logger.NewLogger()
	defer log.Close()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn("ENV", "Error loading .env file, using environment variables")
	}

	log.LogProcess("STARTUP", "Coffee POS backend starting up...")

	cfg := config.Load()
	log.Info("CONFIG", "Configuration loaded successfully")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal("CONFIG", "Invalid timezone "+cfg.Timezone+": "+err.Error())
	}
	log.Info("CONFIG", "Business timezone: "+cfg.Timezone)

	log.LogProcess("DATABASE", "Initializing MySQL database...")
	store, err := storage.NewMySQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", "Failed to initialize MySQL: "+err.Error())
	}
	defer store.Close()
	log.LogDatabase("INIT", "mysql", "MySQL storage initialized successfully")

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	sessions := rediswrap.NewSessions(redisClient)
	log.LogProcess("REDIS", "Session store initialized")

	log.LogProcess("KAFKA", "Initializing Kafka producer...")
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MockMode, log)
	if err != nil {
		log.Fatal("KAFKA", "Failed to create Kafka producer: "+err.Error())
	}
	defer producer.Close()
	log.LogKafka("INIT", "producer", "Kafka producer initialized successfully")

	mediaStore, err := media.NewStore(cfg.Media, log)
	if err != nil {
		log.Fatal("MEDIA", "Failed to initialize media storage: "+err.Error())
	}

	wsHub := hub.New(log)
	log.LogProcess("HUB", "WebSocket hub initialized")

	// Services
	dashboardService := services.NewDashboardService(store, wsHub, log, loc)
	orderService := services.NewOrderService(store, wsHub, dashboardService, producer, log, loc)
	catalogService := services.NewCatalogService(store, wsHub, mediaStore, log)
	authService := services.NewAuthService(store, sessions, log, cfg.Auth)
	log.LogProcess("SERVICE", "All services initialized")

	// Handlers
	orderHandler := handlers.NewOrderHandler(orderService, log)
	catalogHandler := handlers.NewCatalogHandler(catalogService, mediaStore, log)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, log)
	authHandler := handlers.NewAuthHandler(authService, log, cfg.Auth)
	wsHandler := handlers.NewWSHandler(wsHub, catalogService, log)
	log.LogProcess("HANDLER", "All handlers initialized")

	router := setupRouter(cfg, store, mediaStore, authService, orderHandler, catalogHandler, dashboardHandler, authHandler, wsHandler)
	log.LogProcess("ROUTER", "HTTP router configured")

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.LogProcess("SERVER", "Starting HTTP server on port "+cfg.Server.Port)
		log.Info("STARTUP", "Coffee POS backend is ready to accept requests")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "Server failed to start: "+err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("SHUTDOWN", "Received shutdown signal, initiating graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("SHUTDOWN", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SHUTDOWN", "Coffee POS backend shutdown completed")
}

func setupRouter(
	cfg *config.Config,
	store storage.Store,
	mediaStore *media.Store,
	authService *services.AuthService,
	orderHandler *handlers.OrderHandler,
	catalogHandler *handlers.CatalogHandler,
	dashboardHandler *handlers.DashboardHandler,
	authHandler *handlers.AuthHandler,
	wsHandler *handlers.WSHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.EnhancedLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimit(log))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := store.HealthCheck(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "qoyu-coffee",
		})
	})

	// Uploaded product and option images
	router.Static("/media", mediaStore.Dir())

	requireAuth := middleware.Auth(authService, cfg.Auth.CookieName, log)
	requireAdmin := middleware.RequireAdmin(log)

	auth := router.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.Me)
	}

	orders := router.Group("/orders")
	{
		orders.GET("/ws", wsHandler.Orders)
		// The kitchen display has no credential; it bootstraps from the feed
		// before listening on the socket.
		orders.GET("/feed", orderHandler.Feed)
		orders.Use(requireAuth)
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.PATCH("/:id/close", orderHandler.CloseOrder)
		orders.DELETE("/closed", requireAdmin, orderHandler.PurgeClosed)
	}

	products := router.Group("/products")
	{
		products.GET("/ws", wsHandler.Products)
		products.GET("", catalogHandler.ListProducts)
		products.GET("/:id", catalogHandler.GetProduct)
		products.Use(requireAuth, requireAdmin)
		products.POST("", catalogHandler.CreateProduct)
		products.PUT("/:id", catalogHandler.UpdateProduct)
		products.DELETE("/:id", catalogHandler.DeleteProduct)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", catalogHandler.ListCategories)
		categories.DELETE("/:id", requireAuth, requireAdmin, catalogHandler.DeleteCategory)
	}

	options := router.Group("/options")
	{
		options.GET("/ws", wsHandler.Options)
		options.GET("/groups", catalogHandler.ListGroups)
		options.Use(requireAuth, requireAdmin)
		options.POST("/groups", catalogHandler.CreateGroup)
		options.PUT("/groups/:id", catalogHandler.UpdateGroup)
		options.DELETE("/groups/:id", catalogHandler.DeleteGroup)
		options.POST("/groups/:id/items", catalogHandler.AddItem)
		options.PUT("/items/:id", catalogHandler.UpdateItem)
		options.DELETE("/items/:id", catalogHandler.DeleteItem)
	}

	dashboard := router.Group("/dashboard")
	{
		// The wall display reads these without a credential, same as the
		// socket below.
		dashboard.GET("/ws", wsHandler.Dashboard)
		dashboard.GET("/stats", dashboardHandler.Stats)
		dashboard.GET("/hourly-summary", dashboardHandler.HourlySummary)
		dashboard.GET("/recent-orders", dashboardHandler.RecentOrders)
	}

	log.LogProcess("ROUTER", "All routes registered successfully")
	return router
}
