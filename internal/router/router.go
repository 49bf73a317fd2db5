package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/config"
	"github.com/ikkim/restaurant-pos/internal/app/controller"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

// Controllers groups every HTTP handler set the API mounts.
type Controllers struct {
	Auth         *controller.AuthController
	Product      *controller.ProductController
	Upload       *controller.UploadController
	Tag          *controller.TagController
	Cart         *controller.CartController
	Order        *controller.OrderController
	Payment      *controller.PaymentController
	Kitchen      *controller.KitchenController
	Cashier      *controller.CashierController
	Customer     *controller.CustomerController
	Employee     *controller.EmployeeController
	Ingredient   *controller.IngredientController
	User         *controller.UserController
	Report       *controller.ReportController
	Notification *controller.NotificationController
	WebSocket    *controller.WebSocketController
}

// HealthFunc reports runtime details for /health.
type HealthFunc func() gin.H

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
	health         HealthFunc
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
	health HealthFunc,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		config:         cfg,
		health:         health,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "healthy",
			"message": "POS API is running",
		}
		if r.health != nil {
			for k, v := range r.health() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})

	auth := r.authMiddleware
	ctrl := r.controllers

	// 패널 실시간 이벤트 (브라우저는 ?token= 으로 인증)
	router.GET("/ws", auth.Authenticate(), auth.RequireStaff(), ctrl.WebSocket.Connect)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", ctrl.Auth.Register)
			authGroup.POST("/login", ctrl.Auth.Login)
			authGroup.POST("/refresh", ctrl.Auth.RefreshToken)
			authGroup.POST("/logout", auth.Authenticate(), ctrl.Auth.Logout)
			authGroup.GET("/me", auth.Authenticate(), ctrl.Auth.GetMe)
			authGroup.PUT("/password", auth.Authenticate(), ctrl.Auth.ChangePassword)
		}

		products := v1.Group("/products")
		{
			products.GET("", ctrl.Product.ListProducts)
			products.GET("/categories", ctrl.Product.ListCategories)
			products.GET("/:id", ctrl.Product.GetProduct)

			manage := products.Group("", auth.Authenticate(), auth.RequireRole(model.RoleManager))
			manage.POST("", ctrl.Product.CreateProduct)
			manage.PUT("/:id", ctrl.Product.UpdateProduct)
			manage.DELETE("/:id", ctrl.Product.DeleteProduct)
			manage.POST("/:id/image-upload", ctrl.Upload.ProductImageURL)

			products.PATCH("/:id/availability",
				auth.Authenticate(),
				auth.RequireRole(model.RoleManager, model.RoleChef),
				ctrl.Product.SetAvailability,
			)
		}

		v1.GET("/tags", ctrl.Tag.ListTags)

		// 고객 본인 또는 스태프
		customer := v1.Group("/customers/:customer_id", auth.Authenticate())
		{
			customer.GET("/cart", ctrl.Cart.GetCart)
			customer.DELETE("/cart", ctrl.Cart.ClearCart)
			customer.GET("/cart/validate", ctrl.Cart.ValidateCart)
			customer.POST("/cart/items", ctrl.Cart.AddToCart)
			customer.PUT("/cart/items/:product_id", ctrl.Cart.UpdateCartItem)
			customer.DELETE("/cart/items/:product_id", ctrl.Cart.RemoveFromCart)

			customer.POST("/orders", ctrl.Order.CreateOrder)
			customer.GET("/orders", ctrl.Order.ListCustomerOrders)

			customer.GET("",
				auth.RequireStaff(),
				ctrl.Customer.GetCustomer,
			)
			customer.PUT("",
				auth.RequireRole(model.RoleManager, model.RoleCashier),
				ctrl.Customer.UpdateCustomer,
			)
			customer.POST("/points",
				auth.RequireRole(model.RoleManager),
				ctrl.Customer.AddPoints,
			)
		}

		customers := v1.Group("/customers", auth.Authenticate(), auth.RequireRole(model.RoleManager, model.RoleCashier))
		{
			customers.GET("", ctrl.Customer.ListCustomers)
			customers.GET("/lookup", ctrl.Customer.LookupByPhone)
			customers.POST("", ctrl.Customer.RegisterCustomer)
		}

		orders := v1.Group("/orders", auth.Authenticate())
		{
			orders.GET("/:id", ctrl.Order.GetOrder)

			staff := orders.Group("", auth.RequireStaff())
			staff.GET("", ctrl.Order.ListOrders)
			staff.POST("/:id/actions/:action", ctrl.Order.ApplyAction)
			staff.GET("/:id/payments", ctrl.Payment.ListPayments)

			till := orders.Group("", auth.RequireRole(model.RoleManager, model.RoleCashier))
			till.POST("/:id/payments", ctrl.Payment.ProcessPayment)
			till.POST("/:id/payments/failed", ctrl.Payment.RecordFailedPayment)

			manager := orders.Group("", auth.RequireRole(model.RoleManager))
			manager.PATCH("/:id/status", ctrl.Order.UpdateOrderStatus)
			manager.PATCH("/:id/payment-status", ctrl.Order.UpdatePaymentStatus)
			manager.POST("/:id/refund", ctrl.Payment.Refund)
		}

		kitchen := v1.Group("/kitchen", auth.Authenticate(), auth.RequireRole(model.RoleChef, model.RoleManager))
		{
			kitchen.GET("/queue", ctrl.Kitchen.Queue)
			kitchen.GET("/my-orders", ctrl.Kitchen.MyOrders)
			kitchen.POST("/orders/:id/claim", ctrl.Kitchen.Claim)
			kitchen.POST("/orders/:id/start", ctrl.Kitchen.StartCooking)
			kitchen.POST("/orders/:id/ready", ctrl.Kitchen.MarkReady)
		}

		cashier := v1.Group("/cashier", auth.Authenticate(), auth.RequireRole(model.RoleCashier, model.RoleManager))
		{
			cashier.GET("/pending", ctrl.Cashier.PendingOrders)
			cashier.GET("/ready", ctrl.Cashier.ReadyForPickup)
			cashier.POST("/customers/:customer_id/checkout", ctrl.Cashier.Checkout)
			cashier.POST("/orders/:id/confirm", ctrl.Cashier.ConfirmOrder)
			cashier.POST("/orders/:id/cash-payment", ctrl.Cashier.CashPayment)
			cashier.POST("/orders/:id/transfer-payment", ctrl.Cashier.TransferPayment)
			cashier.POST("/orders/:id/send-to-kitchen", ctrl.Cashier.SendToKitchen)
			cashier.POST("/orders/:id/hand-over", ctrl.Cashier.HandOver)
			cashier.POST("/orders/:id/cancel", ctrl.Cashier.CancelOrder)
		}

		ingredients := v1.Group("/ingredients", auth.Authenticate(), auth.RequireRole(model.RoleManager, model.RoleChef))
		{
			ingredients.GET("", ctrl.Ingredient.ListIngredients)
			ingredients.GET("/low-stock", ctrl.Ingredient.LowStock)
			ingredients.GET("/:id", ctrl.Ingredient.GetIngredient)
			ingredients.POST("/:id/adjust", ctrl.Ingredient.AdjustQuantity)

			manage := ingredients.Group("", auth.RequireRole(model.RoleManager))
			manage.POST("", ctrl.Ingredient.CreateIngredient)
			manage.PUT("/:id", ctrl.Ingredient.UpdateIngredient)
			manage.DELETE("/:id", ctrl.Ingredient.DeleteIngredient)
			manage.POST("/refresh", ctrl.Ingredient.RefreshStatuses)
		}

		employees := v1.Group("/employees", auth.Authenticate(), auth.RequireRole(model.RoleManager))
		{
			employees.GET("", ctrl.Employee.ListEmployees)
			employees.GET("/:id", ctrl.Employee.GetEmployee)
			employees.POST("", ctrl.Employee.CreateEmployee)
			employees.PUT("/:id", ctrl.Employee.UpdateEmployee)
			employees.POST("/:id/deactivate", ctrl.Employee.Deactivate)
			employees.POST("/:id/link-user", auth.RequireRole(model.RoleAdmin), ctrl.Employee.LinkUser)
		}

		users := v1.Group("/users", auth.Authenticate(), auth.RequireRole(model.RoleAdmin))
		{
			users.GET("", ctrl.User.ListUsers)
			users.GET("/:id", ctrl.User.GetUser)
			users.POST("", ctrl.User.CreateUser)
			users.PUT("/:id", ctrl.User.UpdateUser)
			users.PATCH("/:id/active", ctrl.User.SetActive)
			users.POST("/:id/reset-password", ctrl.User.ResetPassword)
		}

		reports := v1.Group("/reports", auth.Authenticate(), auth.RequireRole(model.RoleManager))
		{
			reports.GET("/daily", ctrl.Report.DailyRevenue)
			reports.GET("/summary", ctrl.Report.SalesSummary)
			reports.GET("/revenue", ctrl.Report.RevenueByDay)
			reports.GET("/top-products", ctrl.Report.TopProducts)
			reports.GET("/inventory", ctrl.Report.InventorySummary)
			reports.GET("/dashboard", ctrl.Report.Dashboard)
			reports.GET("/export", ctrl.Report.ExportSales)
			reports.POST("/export", ctrl.Report.PublishSalesExport)
		}

		notifications := v1.Group("/notifications", auth.Authenticate(), auth.RequireStaff())
		{
			notifications.GET("", ctrl.Notification.GetNotifications)
			notifications.GET("/unread-count", ctrl.Notification.GetUnreadCount)
			notifications.PUT("/:id/read", ctrl.Notification.MarkAsRead)
			notifications.PUT("/read-all", ctrl.Notification.MarkAllAsRead)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept", "Authorization",
			"Cache-Control", "X-Requested-With", middleware.RequestIDHeader, controller.IdempotencyKeyHeader,
		},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, origin := range allowedOrigins {
		if origin == "*" {
			// 자격 증명과 와일드카드는 함께 쓸 수 없어 요청 Origin 을 그대로 돌려준다
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = allowedOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}
