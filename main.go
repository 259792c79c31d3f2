package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edn-commerce/storefront-core/cache"
	"github.com/edn-commerce/storefront-core/controllers"
	"github.com/edn-commerce/storefront-core/database"
	"github.com/edn-commerce/storefront-core/kafka"
	"github.com/edn-commerce/storefront-core/logger"
	"github.com/edn-commerce/storefront-core/models"
	awspkg "github.com/edn-commerce/storefront-core/pkg/aws"
	"github.com/edn-commerce/storefront-core/repository"
	"github.com/edn-commerce/storefront-core/routes"
	"github.com/edn-commerce/storefront-core/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	env := getEnv("APP_ENV", "development")
	if os.Getenv("CLOUDWATCH_ENABLED") == "true" {
		if shipper, err := awspkg.NewCloudWatchLogsClient(context.Background(), "storefront-core"); err == nil {
			logger.InitializeWithWriter(env, shipper)
		} else {
			logger.Initialize(env)
			logger.Log.Warn("cloudwatch log shipping unavailable", zap.Error(err))
		}
	} else {
		logger.Initialize(env)
	}
	defer logger.Log.Sync()

	dsn := database.DSN(cfg.PostgresHost, cfg.PostgresUser, cfg.PostgresPassword,
		cfg.PostgresDB, cfg.PostgresPort, cfg.PostgresSSLMode, cfg.PostgresTimeZone)
	db, err := database.Connect(dsn,
		&models.Product{}, &models.ProductVariant{},
		&models.CartLine{},
		&models.Order{}, &models.OrderItem{},
		&models.LoyaltyAccount{}, &models.LoyaltyCredit{},
		&models.Invoice{},
	)
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}

	store := repository.NewGormStore(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	idempotency := cache.NewIdempotencyStore(redisClient, 24*time.Hour)

	var publisher services.OrderEventPublisher
	if cfg.KafkaBrokers != "" {
		producer := kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.OrderTopic)
		defer producer.Close()
		publisher = producer
	}

	var snsClient awspkg.SNSPublisher
	awsCfg, awsErr := awspkg.LoadAWSConfig(context.Background())
	if awsErr == nil && cfg.SNSTopicArn != "" {
		snsClient = awspkg.NewSNSClient(awsCfg)
	}

	loyaltyService := services.NewLoyaltyService(store, logger.Log)
	invoiceService := services.NewInvoiceService(store, logger.Log)
	cartService := services.NewCartService(store, logger.Log)
	orderService := services.NewOrderService(store, loyaltyService, invoiceService,
		publisher, snsClient, cfg.SNSTopicArn, logger.Log)
	inventoryService := services.NewInventoryService(store,
		services.NewHTTPSupplierClient(cfg.SupplierURL),
		services.NewHTTPPaymentClient(cfg.PaymentURL),
		invoiceService, logger.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.KafkaBrokers != "" {
		paymentConsumer := services.NewPaymentConsumer(strings.Split(cfg.KafkaBrokers, ","),
			cfg.PaymentTopic, "storefront-core", orderService, logger.Log)
		go paymentConsumer.Start(ctx)
		defer paymentConsumer.Close()
	}

	if awsErr == nil && cfg.PaymentQueue != "" {
		if queueURL, err := awspkg.GetQueueURL(ctx, awsCfg, cfg.PaymentQueue); err == nil {
			sqsConsumer := services.NewSQSPaymentConsumer(
				awspkg.NewSQSConsumer(awsCfg, queueURL), orderService, logger.Log)
			go sqsConsumer.Start(ctx)
		} else {
			logger.Log.Warn("failed to resolve payment queue URL", zap.Error(err))
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())

	routes.Register(r, []byte(cfg.JWTSecret), routes.Controllers{
		Cart:      controllers.NewCartController(cartService),
		Orders:    controllers.NewOrderController(orderService, idempotency),
		Inventory: controllers.NewInventoryController(inventoryService),
		Invoices:  controllers.NewInvoiceController(invoiceService),
		Loyalty:   controllers.NewLoyaltyController(loyaltyService),
	})

	logger.Log.Info("starting server", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("server exited", zap.Error(err))
	}
}
