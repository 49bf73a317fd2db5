package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/config"
	"github.com/ikkim/restaurant-pos/internal/app/controller"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	"github.com/ikkim/restaurant-pos/internal/db"
	"github.com/ikkim/restaurant-pos/internal/middleware"
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/ikkim/restaurant-pos/internal/router"
	"github.com/ikkim/restaurant-pos/internal/scheduler"
	"github.com/ikkim/restaurant-pos/internal/storage"
	ws "github.com/ikkim/restaurant-pos/internal/websocket"
	"github.com/ikkim/restaurant-pos/pkg/broker"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/ikkim/restaurant-pos/pkg/redis"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
		Service:     "restaurant-pos",
	})

	logger.Info("Starting restaurant POS server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	conn, err := db.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(conn); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Optional infrastructure. Interfaces stay nil when a backend is off.
	var (
		blacklist service.TokenBlacklist
		locker    service.Locker
		images    service.ImageStorage
		uploader  service.ExportUploader
		sinks     []notify.Sink
	)

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer redisClient.Close()
		blacklist = redisClient
		locker = redisClient
		sinks = append(sinks, notify.PublisherSink("redis", redisClient, cfg.Notification.RedisChannel))
	} else {
		logger.Warn("Redis disabled: logout cannot revoke tokens and payment locks are local only")
	}

	if cfg.RabbitMQ.Enabled() {
		publisher, err := broker.Dial(&cfg.RabbitMQ)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", err)
		}
		defer publisher.Close()
		sinks = append(sinks, notify.PublisherSink("rabbitmq", publisher, cfg.RabbitMQ.Exchange))
	}

	if cfg.S3.Enabled() {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("Failed to initialize S3 storage", err)
		}
		images = s3Storage
		uploader = s3Storage
	} else {
		logger.Warn("S3 disabled: image uploads and export publishing are unavailable")
	}

	events := notify.NewHub(notify.Options{
		QueueSize:    cfg.Notification.QueueSize,
		Policy:       notify.ParsePolicy(cfg.Notification.Policy),
		BlockTimeout: cfg.Notification.BlockTimeout,
	})
	wsHub := ws.NewHub()

	// Initialize repositories
	userRepo := repository.NewUserRepository(conn)
	customerRepo := repository.NewCustomerRepository(conn)
	employeeRepo := repository.NewEmployeeRepository(conn)
	productRepo := repository.NewProductRepository(conn)
	cartRepo := repository.NewCartRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)
	paymentRepo := repository.NewPaymentRepository(conn)
	ingredientRepo := repository.NewIngredientRepository(conn)
	notificationRepo := repository.NewNotificationRepository(conn)
	reportRepo := repository.NewReportRepository(conn)

	// Initialize services
	authService := service.NewAuthService(
		conn,
		userRepo,
		customerRepo,
		employeeRepo,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	customerService := service.NewCustomerService(customerRepo)
	employeeService := service.NewEmployeeService(employeeRepo, userRepo)
	userService := service.NewUserService(userRepo)
	productService := service.NewProductService(productRepo, images)
	tagService := service.NewTagService(productRepo)
	cartService := service.NewCartService(conn, cartRepo, productRepo)
	orderService := service.NewOrderService(conn, orderRepo, cartRepo, productRepo, customerRepo, events)
	paymentService := service.NewPaymentService(conn, orderRepo, paymentRepo, locker, events)
	chefService := service.NewChefService(orderService, orderRepo, employeeRepo)
	cashierService := service.NewCashierService(orderService, paymentService)
	ingredientService := service.NewIngredientService(ingredientRepo, events, cfg.Inventory.DefaultLowStockThreshold)
	reportService := service.NewReportService(reportRepo, ingredientRepo, uploader)
	notificationService := service.NewNotificationService(notificationRepo)

	sinks = append(sinks, wsHub, notificationService.Sink())

	// Initialize controllers
	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Product:      controller.NewProductController(productService),
		Upload:       controller.NewUploadController(productService),
		Tag:          controller.NewTagController(tagService),
		Cart:         controller.NewCartController(cartService, customerRepo),
		Order:        controller.NewOrderController(orderService, customerRepo),
		Payment:      controller.NewPaymentController(paymentService),
		Kitchen:      controller.NewKitchenController(chefService, authService),
		Cashier:      controller.NewCashierController(cashierService),
		Customer:     controller.NewCustomerController(customerService),
		Employee:     controller.NewEmployeeController(employeeService),
		Ingredient:   controller.NewIngredientController(ingredientService),
		User:         controller.NewUserController(userService),
		Report:       controller.NewReportController(reportService),
		Notification: controller.NewNotificationController(notificationService),
		WebSocket:    controller.NewWebSocketController(wsHub, cfg.CORS.AllowedOrigins),
	}

	authMiddleware := middleware.NewAuthMiddleware(authService)

	health := func() gin.H {
		stats := events.Stats()
		return gin.H{
			"notifications": gin.H{
				"published":   stats.Published,
				"dropped":     stats.Dropped,
				"queued":      stats.Queued,
				"subscribers": stats.Subscribers,
			},
			"online": wsHub.OnlineCount(),
		}
	}

	engine := router.NewRouter(controllers, authMiddleware, cfg, health).Setup()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	maintenance := scheduler.NewMaintenanceScheduler(scheduler.Config{
		IngredientSpec:   cfg.Scheduler.IngredientSweepSpec,
		CartSpec:         cfg.Scheduler.CartSweepSpec,
		CartAbandonAfter: cfg.Scheduler.CartAbandonAfter,

		NotificationSpec:      cfg.Scheduler.NotificationPurgeSpec,
		NotificationRetention: cfg.Scheduler.NotificationRetention,
	}, ingredientService, cartService, notificationService)
	if err := maintenance.Start(); err != nil {
		logger.Fatal("Failed to start maintenance scheduler", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return notify.Serve(gctx, events, cfg.Notification.QueueSize, sinks...)
	})

	g.Go(func() error {
		wsHub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": server.Addr,
			"pid":     os.Getpid(),
			"sinks":   len(sinks),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		maintenance.Stop()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", err)
		return
	}

	stats := events.Stats()
	logger.Info("Server stopped successfully", map[string]interface{}{
		"events_published": stats.Published,
		"events_dropped":   stats.Dropped,
	})
}
