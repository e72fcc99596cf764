package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	awspkg "github.com/MeetKhetani2003/Groovy-Frozen-Server/pkg/aws"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/auth"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/logger"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/middleware"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/controllers"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/database"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/imagestore"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/repository"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/routes"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/services"
)

const serviceName = "product-service"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()
	ctx := context.Background()

	// AWS is only needed for some adapters; failures are fatal only then.
	var (
		awsCfg    sdkaws.Config
		awsLoaded bool
		secrets   awspkg.SecretGetter
	)
	if cfg, err := awspkg.LoadAWSConfig(ctx); err == nil {
		awsCfg, awsLoaded = cfg, true
		if getEnvBool("AWS_USE_SECRETS", false) {
			secrets = awspkg.NewSecretsClient(cfg)
		}
	}

	cfg, err := LoadConfig(ctx, secrets)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	if cfg.NeedsAWS() && !awsLoaded {
		panic("AWS configuration is required for the selected adapters")
	}

	logOpts := logger.Options{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile}
	if cfg.CloudWatchEnabled {
		cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchGroup, serviceName)
		if err != nil {
			panic("failed to initialize CloudWatch Logs: " + err.Error())
		}
		logOpts.Extra = cw
	}
	log, err := logger.New(logOpts)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	// --- 1. Storage ---
	var (
		productRepo repository.ProductRepo
		mongoClient *mongo.Client
	)
	switch cfg.ProductStore {
	case productStoreDynamo:
		productRepo = repository.NewDynamoAdapter(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable)
	default:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURL, cfg.MongoDB)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		mongoClient = client
		productRepo = repository.NewProductRepository(db)
	}
	if err := productRepo.EnsureIndexes(ctx); err != nil {
		log.Warn("Failed to ensure product indexes", zap.Error(err))
	}

	var images imagestore.Store
	switch cfg.ImageStore {
	case imageStoreS3:
		images = imagestore.NewS3Store(awspkg.NewS3Client(awsCfg), imagestore.S3Config{
			Bucket:    cfg.S3Bucket,
			Folder:    cfg.ImageFolder,
			Endpoint:  awspkg.Endpoint(),
			CDNDomain: cfg.CDNDomain,
		})
	default:
		cld, err := imagestore.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.ImageFolder)
		if err != nil {
			log.Fatal("Failed to initialize Cloudinary", zap.Error(err))
		}
		images = cld
	}

	// The read cache is optional; the service runs without it.
	var cache *controllers.CacheManager
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis)
	switch {
	case err == nil:
		cache = controllers.NewCacheManager(redisClient, cfg.CacheTTL)
	case redisClient != nil:
		log.Warn("Redis unavailable, caching disabled", zap.Error(err))
		_ = redisClient.Close()
		redisClient = nil
	default:
		log.Warn("Invalid Redis configuration, caching disabled", zap.Error(err))
	}

	var metrics *awspkg.MetricsClient
	if cfg.MetricsEnabled {
		metrics = awspkg.NewMetricsClient(awsCfg, os.Getenv("METRICS_NAMESPACE"), true)
		cache.WithMetrics(metrics)
	}

	// --- 2. Dependency Injection ---
	productService := services.NewProductService(productRepo, images, log.Named("products"))
	if metrics != nil {
		productService.WithMetrics(metrics)
	}
	validator := controllers.NewRequestValidator()
	productController := controllers.NewProductController(productService, cache, validator)
	bulkHandler := controllers.NewBulkImportHandler(productService, cache, validator)

	// --- 3. HTTP Server & Middleware ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst, 10*time.Minute)
	go limiter.Run(limiterCtx)

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-Cache"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.RateLimitMiddleware(limiter),
		middleware.MetricsMiddleware(metrics, serviceName),
	)

	routes.RegisterRoutes(r, productController, bulkHandler, auth.NewTokenValidator(cfg.JWTSecret), cfg.TrustGatewayHeaders)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// --- 4. Graceful Shutdown ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Product Service starting", zap.String("port", cfg.Port),
			zap.String("product_store", cfg.ProductStore), zap.String("image_store", cfg.ImageStore))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down Product Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	closeRedis(log, redisClient)
	if err := database.DisconnectMongo(mongoClient); err != nil {
		log.Error("Failed to close MongoDB", zap.Error(err))
	}
	log.Info("Product Service stopped gracefully")
}

func closeRedis(log *zap.Logger, client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}
}
