package main

import (
	"log"

	"income-bridge/api/audit"
	"income-bridge/api/config"
	"income-bridge/api/db"
	"income-bridge/api/handlers"
	"income-bridge/api/kafka"
	"income-bridge/api/logger"
	"income-bridge/api/middleware"
	"income-bridge/api/mongodb"
	"income-bridge/api/plaidclient"
	"income-bridge/api/service"
	"income-bridge/api/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := logger.Init(cfg.Development, logger.LogLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	mongoClient, err := mongodb.Connect(cfg)
	if err != nil {
		logger.Get().Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongodb.Disconnect(mongoClient)

	users := mongodb.NewUserRepository(mongoClient, cfg.MongoDatabase)
	plaidClient := plaidclient.New(cfg)

	var auditStore *db.AuditStore
	if cfg.PostgresURL != "" {
		database, err := db.Open(cfg)
		if err != nil {
			logger.Get().Fatal("failed to connect to Postgres", zap.Error(err))
		}
		defer database.Close()
		auditStore = db.NewAuditStore(database)
	} else {
		logger.Get().Warn("POSTGRES_URL not set, audit trail disabled")
	}

	var producer *kafka.Producer
	if cfg.KafkaBootstrapServers != "" {
		producer, err = kafka.NewProducer(cfg)
		if err != nil {
			logger.Get().Fatal("failed to initialize Kafka producer", zap.Error(err))
		}
		defer producer.Close()
	} else {
		logger.Get().Warn("KAFKA_BOOTSTRAP_SERVERS not set, event stream disabled")
	}

	// Started after the sinks exist and stopped before they close, so
	// queued audit jobs always drain into live connections.
	dispatcher := worker.NewDispatcher(2, 256)
	dispatcher.Start()
	defer dispatcher.Stop()

	recorder := audit.NewRecorder(auditStore, producer, dispatcher)
	svc := service.New(plaidClient, users, recorder, cfg)
	handler := handlers.New(cfg, svc, recorder)

	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})
	router.Use(middleware.CorsMiddleware)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1/plaid")
	{
		api.POST("/link/token/create", handler.CreateLinkToken)
		api.POST("/exchange/token", handler.ExchangePublicToken)
		api.POST("/check/income", handler.CheckIncome)
		api.POST("/webhook", middleware.PlaidWebhookVerifier(cfg), handler.HandleWebhook)
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Get().Info("server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Get().Fatal("failed to start server", zap.Error(err))
	}
}
