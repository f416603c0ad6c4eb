package main

import (
	"context"
	"log"
	"time"

	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/app"
	"github.com/klass-lk/blogboot/internal/config"
	"github.com/klass-lk/blogboot/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := blogboot.NewLogger(blogboot.LogConfig{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	store, err := blogboot.NewMongoConfig().
		WithURI(cfg.MongoURI).
		WithHost(cfg.MongoHost, cfg.MongoPort).
		WithCredentials(cfg.MongoUser, cfg.MongoPassword).
		WithDatabase(cfg.MongoDatabase).
		Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("failed to close mongo connection", zap.Error(err))
		}
	}()
	logger.Info("connected to mongo", zap.String("database", cfg.MongoDatabase))

	deps := app.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Database: store.Database(),
		Pinger:   store,
	}

	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		defer client.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, revocation checks will fail open", zap.Error(err))
		}
		cancel()
		deps.Revocations = service.NewRedisTokenStore(client)
	} else {
		logger.Info("REDIS_ADDR not set, keeping revoked tokens in memory")
	}

	if cfg.S3Enabled() {
		files, err := blogboot.NewS3FileService(ctx, blogboot.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			URLExpiry: cfg.S3URLExpiry,
		})
		if err != nil {
			return err
		}
		deps.Files = files
	} else {
		logger.Info("S3_BUCKET not set, featured image uploads disabled")
	}

	application := app.New(deps)
	if err := application.Prepare(ctx); err != nil {
		return err
	}

	logger.Info("starting server", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
	return application.Server.Start(cfg.Port)
}
