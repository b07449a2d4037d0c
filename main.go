package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gitmax/gitmax/backend/go-services/handlers"
	"github.com/gitmax/gitmax/backend/go-services/internal/ai"
	"github.com/gitmax/gitmax/backend/go-services/internal/analysis"
	"github.com/gitmax/gitmax/backend/go-services/internal/config"
	"github.com/gitmax/gitmax/backend/go-services/internal/database"
	"github.com/gitmax/gitmax/backend/go-services/internal/github"
	"github.com/gitmax/gitmax/backend/go-services/internal/loginstate"
	"github.com/gitmax/gitmax/backend/go-services/internal/scoring"
	"github.com/gitmax/gitmax/backend/go-services/internal/tokens"
	"github.com/gitmax/gitmax/backend/go-services/internal/users"
	"github.com/gitmax/gitmax/backend/go-services/pkg/logger"
	"github.com/gitmax/gitmax/backend/go-services/pkg/metrics"
	"github.com/gitmax/gitmax/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: github_oauth=%v mongo=%v redis=%v openai=%v",
		cfg.GitHub.ClientID != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.OpenAI.APIKey != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.Frontend.URL)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	// Redis backs the one-shot OAuth state store when available; the in-memory
	// store is fine for single-instance deployments.
	var redisClient *redis.Client
	var stateRepo loginstate.Repository = loginstate.NewMemoryRepository()
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s), using in-memory login state: %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			stateRepo = loginstate.NewRedisRepository(redisClient, "")
			logger.Infof("Connected to Redis for login state storage: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	states := loginstate.NewService(stateRepo)

	// Connect to MongoDB with retry/backoff to tolerate startup races
	ctx := context.Background()
	var usersSvc *users.Service
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
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
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			repo := users.NewMongoUserRepository(client.Database(cfg.MongoDB.Database).Collection("users"))
			if err := repo.EnsureIndexes(ctx); err != nil {
				logger.Fatalf("failed to ensure user indexes: %v", err)
			}
			usersSvc = users.NewService(repo)
		}
	}

	ghClient := github.NewClient(cfg.GitHub)
	aiClient := ai.NewClient(cfg.OpenAI)
	scoringSvc := scoring.NewService(aiClient)
	analysisSvc := analysis.NewService(ghClient, aiClient)
	issuer := tokens.Issuer{Secret: cfg.JWT.Secret, DefaultTTL: cfg.JWT.AccessTokenTTL}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["users"] = usersSvc != nil
		if usersSvc == nil {
			ready = false
		}
		deps["github_oauth"] = cfg.GitHub.ClientID != "" && cfg.GitHub.ClientSecret != ""
		if !deps["github_oauth"] {
			ready = false
		}
		// redis is optional; report it only when configured
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil
			if !deps["redis"] {
				ready = false
			}
		}

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Register API handlers. The login flow and every protected endpoint need
	// the user store; without it only health/docs/metrics are served.
	if usersSvc != nil {
		api := r.Group("/api")
		auth := middleware.AuthMiddleware(issuer, usersSvc)
		handlers.NewAuthHandler(cfg, ghClient, usersSvc, states).Register(api)
		handlers.NewProfileHandler(usersSvc).Register(api, auth)
		handlers.NewAnalysisHandler(ghClient, analysisSvc, scoringSvc).Register(api, auth)
	} else {
		logger.Warnf("api handlers not registered because the user store is unavailable")
	}

	// Minimal Swagger UI + JSON for API documentation
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Debugf("services: users=%v redis=%v jwt_secret_set=%v", usersSvc != nil, redisClient != nil, cfg.JWT.Secret != "")
	logger.Infof("Starting gitmax api service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
