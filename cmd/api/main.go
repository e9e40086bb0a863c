package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/consulting-service/internal/api/http"
	"github.com/spec-kit/consulting-service/internal/api/http/handlers"
	"github.com/spec-kit/consulting-service/internal/auth"
	"github.com/spec-kit/consulting-service/internal/config"
	"github.com/spec-kit/consulting-service/internal/events"
	"github.com/spec-kit/consulting-service/internal/notification"
	"github.com/spec-kit/consulting-service/internal/observability"
	"github.com/spec-kit/consulting-service/internal/payment"
	"github.com/spec-kit/consulting-service/internal/persistence"
	"github.com/spec-kit/consulting-service/internal/repository"
	"github.com/spec-kit/consulting-service/internal/service"
	"github.com/spec-kit/consulting-service/internal/storage"
	"github.com/spec-kit/consulting-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("failed to connect mongo", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	attemptRepo := repository.NewPaymentAttemptRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)

	readiness := map[string]handlers.Pinger{"postgres": pg}

	// Redis backs sessions, locks, sequences and the catalog cache when configured.
	var kv interface {
		repository.CheckoutStore
		repository.IdempotencyGuard
		repository.CatalogCache
		repository.Sequencer
	}
	if redis.Client != nil {
		kv = repository.NewRedisStore(redis.Client)
		readiness["redis"] = redis
	} else {
		kv = repository.NewMemoryStore()
	}

	var messageRepo repository.MessageRepository
	if mongo.DB != nil {
		// A process-local counter restarts at zero, so without Redis the stored max is used.
		var seq repository.Sequencer
		if redis.Client != nil {
			seq = kv
		}
		messageRepo = repository.NewMongoMessageRepository(mongo.DB, seq)
		readiness["mongo"] = mongo
	} else {
		messageRepo = repository.NewMemoryMessageRepository()
	}

	var objects storage.ObjectStore = storage.DisabledStore{}
	if cfg.Storage.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("failed to init s3 storage", zap.Error(err))
		}
		objects = s3Store
	} else {
		logger.Warn("S3_BUCKET not provided; complaint attachments are disabled")
	}

	gateways := payment.NewRegistry(cfg.Payment.DefaultGateway, configuredGateways(cfg.Payment, logger)...)

	composer, err := notification.NewComposer(cfg.App.PublicURL, cfg.Notification.AdminEmail)
	if err != nil {
		logger.Fatal("failed to parse email templates", zap.Error(err))
	}
	var transport notification.Transport = notification.NewLogTransport(logger)
	if cfg.Notification.SMTPHost != "" {
		transport = notification.NewSMTPTransport(cfg.Notification)
	} else {
		logger.Warn("SMTP_HOST not provided; emails are logged instead of sent")
	}
	mailer := notification.NewDispatcher(transport, notification.RetryPolicy{
		MaxAttempts: cfg.Notification.MaxAttempts,
		Initial:     cfg.Notification.InitialBackoff(),
	}, notification.NewEmailLog(cfg.Notification.HistorySize), logger, notification.WithMetrics(metrics))

	var queue worker.EmailQueue
	if opt, ok := redis.QueueOpt(); ok {
		queue = worker.NewAsynqEmailQueue(opt, cfg.Notification.WorkerConcurrency, mailer, logger)
	} else {
		queue = worker.NewLocalEmailQueue(mailer, cfg.Notification.WorkerConcurrency, 0, logger)
	}
	if err := queue.Start(); err != nil {
		logger.Fatal("failed to start email queue", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)

	notificationService := service.NewNotificationService(composer, queue, logger)
	notificationService.RegisterHandlers(dispatcher)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		Notifier:          notificationService,
		Logger:            logger,
	})
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:  orderRepo,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	chatService := service.NewChatService(service.ChatDependencies{
		OrderRepo:   orderRepo,
		MessageRepo: messageRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	chatService.RegisterHandlers(dispatcher)
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		Gateways:    gateways,
		CatalogRepo: catalogRepo,
		AttemptRepo: attemptRepo,
		OrderRepo:   orderRepo,
		Sessions:    kv,
		Locks:       kv,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Currency:    cfg.Payment.Currency,
		SessionTTL:  cfg.Payment.CheckoutTTL(),
	})
	catalogService := service.NewCatalogService(catalogRepo, kv, cfg.Payment.Currency, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, orderRepo, logger)
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo:  complaintRepo,
		OrderRepo:      orderRepo,
		UserRepo:       userRepo,
		Objects:        objects,
		Dispatcher:     dispatcher,
		Logger:         logger,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})
	dashboardService := service.NewDashboardService(orderRepo, complaintRepo, feedbackRepo, messageRepo)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
		BodyLimit:    int(cfg.Storage.MaxUploadBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Users:            handlers.NewUsersHandler(authService),
		Orders:           handlers.NewOrdersHandler(orderService, chatService),
		StaffOrders:      handlers.NewStaffOrdersHandler(orderService, dashboardService),
		Payments:         handlers.NewPaymentsHandler(paymentService),
		Catalog:          handlers.NewCatalogHandler(catalogService),
		Feedback:         handlers.NewFeedbackHandler(feedbackService),
		Complaints:       handlers.NewComplaintsHandler(complaintService),
		Admin:            handlers.NewAdminHandler(dashboardService, authService, mailer.Log()),
		AuthMiddleware:   authMiddleware,
		Metrics:          metrics,
		ConfirmationCode: cfg.Auth.AdminConfirmationCode,
		Limiter:          httptransport.NewIPRateLimiter(cfg.App.RateLimitPerSecond, cfg.App.RateLimitBurst),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
	queue.Shutdown()
}

// configuredGateways returns the gateways whose credentials are present.
func configuredGateways(cfg config.PaymentConfig, logger *zap.Logger) []payment.Gateway {
	var out []payment.Gateway
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		out = append(out, payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret))
	}
	if cfg.StripeSecretKey != "" {
		out = append(out, payment.NewStripe(cfg.StripeSecretKey, cfg.StripePublishable))
	}
	if len(out) == 0 {
		logger.Warn("no payment gateway credentials provided; checkout is unavailable")
	}
	return out
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
