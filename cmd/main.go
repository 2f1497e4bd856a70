package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nimbusdrive/config"
	"nimbusdrive/jobs"
	"nimbusdrive/repository/mongodb"
	"nimbusdrive/routes"
	"nimbusdrive/services"
	"nimbusdrive/utils"
)

func main() {
	// Best effort; deployments pass real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := utils.InitLogger(cfg.Env); err != nil {
		panic(err)
	}
	defer utils.SyncLogger()
	logger := utils.Logger

	cfg.Log(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatalw("failed to connect to MongoDB", "error", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			logger.Warnw("failed to disconnect MongoDB", "error", err)
		}
	}()
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		logger.Fatalw("failed to ping MongoDB", "error", err)
	}
	logger.Infow("connected to MongoDB", "database", cfg.DatabaseName)

	store := mongodb.New(mongoClient.Database(cfg.DatabaseName))
	if err := store.EnsureIndexes(connectCtx); err != nil {
		logger.Fatalw("failed to ensure indexes", "error", err)
	}

	blobs, err := services.NewB2BlobStore(connectCtx, cfg.B2ApplicationKeyID, cfg.B2ApplicationKey, cfg.B2BucketName)
	if err != nil {
		logger.Fatalw("failed to initialize blob storage", "error", err)
	}

	container := routes.NewServiceContainer(store, blobs, routes.ContainerConfig{
		JWTSecret:         cfg.JWTSecret,
		MaxFileSize:       cfg.MaxFileSize,
		DefaultQuotaLimit: cfg.DefaultQuotaLimit,
	}, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	api := router.Group("/api")
	routes.SetupRoutes(api, container)

	cleaner := jobs.NewTrashCleaner(container.Trash, cfg.TrashCleanupInterval, logger)
	go cleaner.Run(ctx)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("server shutdown", "error", err)
		}
	}()

	logger.Infow("starting server", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalw("server failed", "error", err)
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowOrigin := ""
		if len(allowedOrigins) == 0 {
			allowOrigin = "*"
		} else {
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					allowOrigin = allowed
					break
				}
			}
		}

		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
