// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/franchisehub/supply-backend/internal/config"
	"github.com/franchisehub/supply-backend/internal/handlers"
	"github.com/franchisehub/supply-backend/internal/integrations"
	"github.com/franchisehub/supply-backend/internal/middleware"
	"github.com/franchisehub/supply-backend/internal/services"
	"github.com/franchisehub/supply-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize integrations
	emailSender, err := integrations.NewEmailSender(cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email sender: %w", err)
	}
	pushSender := integrations.NewPushSender(cfg.Push)
	whatsappSender := integrations.NewWhatsAppSender(cfg.WhatsApp)
	billingClient := integrations.NewQuickBooksClient(cfg.QuickBooks)

	// Initialize services
	inventoryService := services.NewInventoryService(db)
	stateMachine := services.NewOrderStateMachine()
	dispatcher := services.NewNotificationDispatcher(db, emailSender, pushSender, whatsappSender)
	cartService := services.NewCartService(db)
	productService := services.NewProductService(db, inventoryService)
	authService := services.NewAuthService(db, cfg.JWT)
	orderService := services.NewOrderService(db, inventoryService, stateMachine, dispatcher, billingClient, cartService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	notificationHandler := handlers.NewNotificationHandler(dispatcher)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
			auth.PUT("/fcm-token", middleware.AuthRequired(), authHandler.UpdateFCMToken)
		}

		// Product catalog. The listing is public but role-aware, so it
		// runs behind OptionalAuth rather than a hard gate.
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/categories", productHandler.GetCategories)
			products.GET("/:id", productHandler.GetProduct)

			// Staff routes
			staff := products.Group("")
			staff.Use(middleware.AuthRequired(), middleware.StaffRequired())
			{
				staff.POST("/:id/stock", productHandler.AdjustStock)
			}

			// Admin routes
			admin := products.Group("")
			admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				admin.POST("", productHandler.CreateProduct)
				admin.PUT("/:id", productHandler.UpdateProduct)
			}
		}

		// Cart routes
		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired())
		{
			cart.GET("", cartHandler.GetCart)
			cart.DELETE("", cartHandler.Clear)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:id", cartHandler.UpdateItem)
			cart.DELETE("/items/:id", cartHandler.RemoveItem)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", middleware.CheckoutRateLimit(), orderHandler.CreateOrder)
			orders.GET("", orderHandler.GetOrders)
			orders.GET("/:id", orderHandler.GetOrder)

			// Staff routes
			staff := orders.Group("")
			staff.Use(middleware.StaffRequired())
			{
				staff.PUT("/:id/status", orderHandler.UpdateStatus)
			}

			// Admin routes
			admin := orders.Group("")
			admin.Use(middleware.AdminRequired())
			{
				admin.POST("/:id/invoice", orderHandler.SyncInvoice)
			}
		}

		// In-app notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
			notifications.DELETE("/:id", notificationHandler.Delete)
		}
	}

	return r, nil
}
