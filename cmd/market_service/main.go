package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	accountapp "marketplace_service/internal/account/app"
	"marketplace_service/internal/account/domain"
	accountrepo "marketplace_service/internal/account/repository"
	accountrouter "marketplace_service/internal/account/router"
	chatapp "marketplace_service/internal/chat/app"
	chatrepo "marketplace_service/internal/chat/repository"
	"marketplace_service/internal/market/api/handlers"
	marketrouter "marketplace_service/internal/market/api/router"
	marketapp "marketplace_service/internal/market/app"
	marketrepo "marketplace_service/internal/market/repository"
	"marketplace_service/pkg/config"
	"marketplace_service/pkg/database"
	"marketplace_service/pkg/logger"
	testtool "marketplace_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MarketService, config.EnvConfig.MarketServiceLogPath)
	cfg := config.LoadConfig[config.Market](config.EnvConfig.MarketService, config.EnvConfig.MarketServiceYAMLPath)
	testtool.StartPprof()

	ctx := context.Background()

	// Postgres: accounts on pgx, posts on gorm
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", dsn)),
			zap.Error(err),
		)
	}
	defer pool.Close()

	// the account repository and the chat directory both read this table
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			status INT NOT NULL DEFAULT 0
		)`); err != nil {
		logger.Log.Fatal("accounts table migration failed", zap.Error(err))
	}

	gormDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	db, err := database.NewGormConnection(database.Connection{
		ConnectStr:    gormDSN,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to open gorm connection after retries", zap.Error(err))
	}

	postRepo := marketrepo.NewPostRepo(db)
	if err := postRepo.AutoMigrate(); err != nil {
		log.Fatalf("post table migration failed: %v", err)
	}

	// Redis: sessions, presence
	addr, password, _ := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(addr, password, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// MinIO holds post images
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:   cfg.MinIO.Endpoint,
		User:       cfg.MinIO.User,
		Password:   cfg.MinIO.Password,
		BucketName: cfg.MinIO.Bucket,
		UseSSL:     cfg.MinIO.UseSSL,

		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to minio after retries", zap.Error(err))
	}

	// Kafka carries post lifecycle events
	kafkaWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Kafka writer failed", zap.Error(err))
	}
	defer kafkaWriter.Close()

	// Mongo: "chat with seller" opens rooms in the chat store
	mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    mongoURI,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal("Unable to connect to mongoDB database after retries", zap.Error(err))
	}
	defer mongo.Close(ctx)

	roomRepo := chatrepo.NewMongoRoomRepository(mongo.Database)
	msgRepo := chatrepo.NewMongoMessageRepository(mongo.Database)
	directory := chatrepo.NewDirectoryRepository(pool, redisClient)
	notifier := chatrepo.NewRedisNotifier(redisClient)
	chatService := chatapp.NewChatService(roomRepo, msgRepo, directory, notifier, nil)

	accountRepo := accountrepo.NewAccountRepository(pool)
	presenceRepo := accountrepo.NewPresenceRepository(redisClient)
	sessionRepo := database.NewRedisRepository[domain.AccountSession](redisClient)
	accountUC := accountapp.NewAccountUseCase(accountRepo, presenceRepo, cfg.SessionTTL, sessionRepo)

	marketUC := marketapp.NewMarketUseCase(postRepo, minioClient, marketrepo.NewKafkaEventPublisher(kafkaWriter), chatService)

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.MarketServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	accountrouter.RegisterRoutes(r, &accountapp.AccountHandler{Usecase: accountUC})
	marketrouter.RegisterRoutes(r, &handlers.PostHandler{Usecase: marketUC})

	port := ":" + cfg.Port
	logger.Log.Info(fmt.Sprintf("Market Service listening on %s", port))
	if err := r.Listen(port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
