package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/savanna-table/savanna-backend/config"
	"github.com/savanna-table/savanna-backend/internal/app/controller"
	"github.com/savanna-table/savanna-backend/internal/metrics"
	"github.com/savanna-table/savanna-backend/internal/middleware"
	"github.com/savanna-table/savanna-backend/pkg/util"
)

type Router struct {
	authController    *controller.AuthController
	menuController    *controller.MenuController
	orderController   *controller.OrderController
	profileController *controller.ProfileController
	adminController   *controller.AdminController
	wsController      *controller.WSController
	authMiddleware    *middleware.AuthMiddleware
	loginLimiter      *middleware.RateLimiter
	config            *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	menuController *controller.MenuController,
	orderController *controller.OrderController,
	profileController *controller.ProfileController,
	adminController *controller.AdminController,
	wsController *controller.WSController,
	authMiddleware *middleware.AuthMiddleware,
	loginLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		menuController:    menuController,
		orderController:   orderController,
		profileController: profileController,
		adminController:   adminController,
		wsController:      wsController,
		authMiddleware:    authMiddleware,
		loginLimiter:      loginLimiter,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	controller.RegisterValidators()

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Savanna Table API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if r.config.Storage.Driver == config.StorageDriverLocal {
		router.Static(r.config.Storage.PublicPrefix, r.config.Storage.UploadDir)
	}

	authenticated := r.authMiddleware.Authenticate()
	userOnly := r.authMiddleware.RequireRole(util.RoleUser)
	adminOnly := r.authMiddleware.RequireRole(util.RoleAdmin)
	loginLimit := r.loginLimiter.Handler()

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", loginLimit, r.authController.Login)
			auth.POST("/logout", authenticated, r.authController.Logout)
		}

		menu := api.Group("/menu")
		{
			menu.GET("", r.menuController.ListMenu)
			menu.GET("/:id", r.menuController.GetMenuItem)
		}

		orders := api.Group("/orders")
		orders.Use(authenticated)
		{
			orders.POST("", userOnly, r.orderController.PlaceOrder)
			orders.GET("/user", userOnly, r.orderController.GetUserOrders)
			orders.GET("/:id", r.orderController.GetOrder)
		}

		user := api.Group("/user")
		user.Use(authenticated, userOnly)
		{
			user.GET("/profile", r.profileController.GetProfile)
			user.PUT("/profile", r.profileController.UpdateProfile)

			user.GET("/addresses", r.profileController.ListAddresses)
			user.POST("/addresses", r.profileController.AddAddress)
			user.PUT("/addresses/:id", r.profileController.UpdateAddress)
			user.DELETE("/addresses/:id", r.profileController.DeleteAddress)

			user.GET("/orders", r.orderController.GetOrderHistory)
			user.GET("/orders/:id", r.orderController.GetUserOrder)
			user.POST("/orders/:id/review", r.orderController.ReviewOrder)
		}

		api.POST("/admin/login", loginLimit, r.authController.AdminLogin)

		admin := api.Group("/admin")
		admin.Use(authenticated, adminOnly)
		{
			admin.GET("/dashboard", r.adminController.Dashboard)
			admin.GET("/users", r.adminController.ListUsers)

			admin.GET("/menu", r.menuController.ListAllMenu)
			admin.POST("/menu", r.menuController.CreateMenuItem)
			admin.PUT("/menu/:id", r.menuController.UpdateMenuItem)
			admin.DELETE("/menu/:id", r.menuController.DeleteMenuItem)

			admin.GET("/orders", r.orderController.ListOrders)
			admin.PUT("/orders/:id/status", r.orderController.UpdateOrderStatus)
		}

		api.GET("/ws", authenticated, r.wsController.Connect)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, Accept, Origin, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
