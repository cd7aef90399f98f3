package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"gemini-gateway/config"
	"gemini-gateway/internal/gemini"
	"gemini-gateway/internal/handler"
	"gemini-gateway/internal/metrics"
	"gemini-gateway/internal/redis"
	"gemini-gateway/internal/repository"
	"gemini-gateway/internal/server"
	"gemini-gateway/internal/services"
	"gemini-gateway/internal/storage"
	"gemini-gateway/pkg/database"
	"gemini-gateway/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	l := logger.New(cfg.Environment)
	defer l.Sync()

	if err := run(cfg, l); err != nil {
		l.Errorf("Server exited: %v", err)
		l.Sync()
		log.Fatal(err)
	}
}

func run(cfg *config.Config, l *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.StartupTimeout)
	defer cancel()

	var (
		db          *sql.DB
		redisClient = redis.NewClient(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		presigner services.Presigner
	)
	defer redisClient.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		conn, err := database.Connect(gctx, cfg.Database)
		if err != nil {
			return err
		}
		db = conn
		return database.ApplyMigrations(gctx, conn, l)
	})
	g.Go(func() error {
		return redis.Ping(gctx, redisClient)
	})
	if cfg.StorageEnabled() {
		g.Go(func() error {
			client, err := storage.NewClient(gctx, storage.S3Config{
				Region:     cfg.S3.Region,
				Bucket:     cfg.S3.Bucket,
				AccessKey:  cfg.S3.AccessKey,
				SecretKey:  cfg.S3.SecretKey,
				Endpoint:   cfg.S3.Endpoint,
				PublicBase: cfg.S3.PublicBase,
				PresignTTL: cfg.S3.PresignTTL,
			})
			if err != nil {
				return err
			}
			if err := client.HeadBucket(gctx); err != nil {
				return err
			}
			presigner = client
			return nil
		})
	} else {
		l.Infof("S3_BUCKET not set, attachment uploads are disabled")
	}
	err := g.Wait()
	if db != nil {
		defer db.Close()
	}
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	gen, err := gemini.NewClient(ctx, gemini.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		return fmt.Errorf("gemini client: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	cache := redis.NewCacheStore(redisClient, redis.DefaultCacheConfig())

	authService := services.NewAuthService(userRepo, cache, cfg)
	chatService := services.NewChatService(chatRepo)
	uploadService := services.NewUploadService(presigner, cfg.MaxBodyBytes)

	srv := server.New(cfg, l, m, registry)
	srv.SetupRoutes(&server.Handlers{
		Generate: handler.NewGenerateHandler(gen, cfg.GeminiTimeout, l, m),
		Auth:     handler.NewAuthHandler(authService),
		Chat:     handler.NewChatHandler(chatService, uploadService),
	}, authService,
		server.HealthCheck{Name: "database", Check: func(ctx context.Context) error { return database.HealthCheck(ctx, db) }},
		server.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redis.Ping(ctx, redisClient) }},
	)

	l.Infof("Using model %s", gen.Model())
	return srv.Start()
}
