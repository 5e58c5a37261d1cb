package bootstrap

import (
	"context"
	"log"

	"shopnest-be/internal/config"
	"shopnest-be/internal/controller"
	"shopnest-be/internal/handler"
	"shopnest-be/internal/pkg/logger"
	"shopnest-be/internal/pkg/mailer"
	"shopnest-be/internal/repository/unitofwork"
	"shopnest-be/internal/service"
	"shopnest-be/internal/websocket"
	"shopnest-be/pkg/courier"
	"shopnest-be/pkg/payment"
	"shopnest-be/pkg/stock"
	workflowEvents "shopnest-be/pkg/workflow/events"

	pkgNats "shopnest-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController       controller.IAuthController
	ResolutionController controller.IResolutionController
	WebhookController    controller.IWebhookController

	// Background Services (Exposed for main.go to run)
	ReconciliationService service.IReconciliationService
	FeedService           service.IFeedService

	// WebSockets
	FeedHandler  *handler.FeedHandler
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// 2. Background Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/feed.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. External Adapters
	courierGateway := courier.NewHTTPGateway(
		cfg.Courier.BaseURL,
		cfg.Courier.APIKey,
		cfg.Resolution.ExternalCallTimeout,
	)
	refundProcessor := payment.NewMidtransRefunder(
		cfg.Payment.MidtransServerKey,
		cfg.Payment.MidtransIsProduction,
	)
	stockAdjuster := stock.NewAdjuster(sysLogger)
	eventPublisher := workflowEvents.NewNatsPublisher(natsPub, sysLogger)

	// 4. Services
	reconcilePublisher := service.NewPublisherService(pubSub, cfg.Resolution.ReconcileTopic)
	reconciliationService := service.NewReconciliationService(
		pubSub,
		cfg.Resolution.ReconcileTopic,
		uowFactory,
		refundProcessor,
		eventPublisher,
		sysLogger,
		cfg.Resolution,
	)

	resolutionService := service.NewResolutionService(
		uowFactory,
		courierGateway,
		refundProcessor,
		stockAdjuster,
		eventPublisher,
		reconcilePublisher,
		sysLogger,
		cfg.Resolution,
	)
	webhookService := service.NewWebhookService(
		uowFactory,
		eventPublisher,
		sysLogger,
		cfg.Courier.WebhookSecret,
	)
	feedService := service.NewFeedService(natsSub, wsHub, emailService, wsLogger)
	authService := service.NewAuthService(uowFactory, sysLogger)

	// 5. Controllers
	authController := controller.NewAuthController(authService)
	resolutionController := controller.NewResolutionController(resolutionService)
	webhookController := controller.NewWebhookController(webhookService)
	feedHandler := handler.NewFeedHandler(wsHub, wsLogger)

	return &Container{
		AuthController:        authController,
		ResolutionController:  resolutionController,
		WebhookController:     webhookController,
		ReconciliationService: reconciliationService,
		FeedService:           feedService,
		FeedHandler:           feedHandler,
		WebSocketHub:          wsHub,
	}
}
