package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/syncpad/syncpad/handlers"
	"github.com/syncpad/syncpad/internal/collab"
	"github.com/syncpad/syncpad/internal/config"
	"github.com/syncpad/syncpad/internal/database"
	"github.com/syncpad/syncpad/internal/registry"
	"github.com/syncpad/syncpad/internal/store"
	"github.com/syncpad/syncpad/pkg/logger"
	"github.com/syncpad/syncpad/pkg/metrics"
	"github.com/syncpad/syncpad/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level is controlled with LOG_LEVEL (debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond
	// to OPTIONS. Production should use a stricter policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+middleware.IdentityHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and snapshot store can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-identity when the header is present,
	// otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Connect to MongoDB with retry/backoff to tolerate startup races
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
			mongoClient = nil
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
			logger.Infof("Connected to MongoDB: %s", cfg.MongoDB.Database)
		}
	}

	// Snapshot store selection: Redis when available, then MongoDB, then
	// MinIO, falling back to in-memory (dev/test only, nothing survives a
	// restart).
	var snapshots store.Store
	switch {
	case redisClient != nil:
		snapshots = store.NewRedisStore(redisClient, "doc:")
		logger.Infof("Using Redis for snapshot storage")
	case mongoClient != nil:
		col := mongoClient.Database(cfg.MongoDB.Database).Collection("snapshots")
		snapshots = store.NewMongoStore(col)
		logger.Infof("Using MongoDB for snapshot storage")
	case cfg.MinIO.Endpoint != "":
		ms, err := store.NewMinIOStore(&cfg.MinIO)
		if err != nil {
			logger.Warnf("failed to initialize MinIO store: %v", err)
			snapshots = store.NewMemoryStore()
			logger.Warnf("Falling back to in-memory snapshot storage")
		} else {
			snapshots = ms
			logger.Infof("Using MinIO for snapshot storage: %s/%s", cfg.MinIO.Endpoint, cfg.MinIO.Bucket)
		}
	default:
		snapshots = store.NewMemoryStore()
		logger.Warnf("No durable backend configured; using in-memory snapshot storage")
	}

	reg := registry.New()
	engine := collab.NewEngine(reg, snapshots, cfg.Collab)
	defer engine.Shutdown()

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness returns 200 only when the configured dependencies answered
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil
			if redisClient == nil {
				ready = false
			}
		}
		if cfg.MongoDB.URI != "" {
			deps["mongodb"] = mongoClient != nil
			if mongoClient == nil {
				ready = false
			}
		}
		deps["storage"] = snapshots != nil

		status := http.StatusOK
		label := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			label = "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.RegisterDocumentRoutes(r, reg)
	handlers.RegisterWS(r, engine)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting session server on %s (save=%s debounce=%s)",
		addr, cfg.Collab.SaveInterval, cfg.Collab.PresenceDebounce)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
