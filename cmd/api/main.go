package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/api"
	"jobboard/internal/api/middleware"
	"jobboard/internal/config"
	"jobboard/internal/database"
	"jobboard/internal/identity"
	"jobboard/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	log.Printf("api bootstrapped with db host=%s port=%d db=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Printf("database connection ready")

	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	log.Printf("database migrated")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	var identityMiddleware gin.HandlerFunc
	if cfg.Identity.PublicKeyPath != "" {
		publicKeyPEM, err := os.ReadFile(cfg.Identity.PublicKeyPath)
		if err != nil {
			log.Fatalf("read identity public key: %v", err)
		}
		verifier, err := identity.NewVerifier(publicKeyPEM)
		if err != nil {
			log.Fatalf("init identity verifier: %v", err)
		}
		identityMiddleware = middleware.IdentityMiddleware(verifier)
	} else {
		logger.Warn("identity public key not configured, running without token verification")
		identityMiddleware = middleware.PassthroughIdentity()
	}

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, api.RouteDeps{
		DB:            db,
		AsynqClient:   asynqClient,
		RedisClient:   redisClient,
		StorageClient: storageClient,
		Logger:        logger,
		Identity:      identityMiddleware,
		ClamdAddr:     cfg.Clamd.Addr,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	log.Printf("api listening on %s", address)
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
