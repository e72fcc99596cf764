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
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	awspkg "github.com/MeetKhetani2003/Groovy-Frozen-Server/pkg/aws"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/clients"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/config"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/controllers"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/database"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/events"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/routes"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/services"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/auth"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/logger"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/middleware"
)

const serviceName = "cart-service"

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	var (
		awsCfg    sdkaws.Config
		awsLoaded bool
		secrets   awspkg.SecretGetter
	)
	if c, err := awspkg.LoadAWSConfig(ctx); err == nil {
		awsCfg, awsLoaded = c, true
		if config.UseSecrets() {
			secrets = awspkg.NewSecretsClient(c)
		}
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	if cfg.NeedsAWS() && !awsLoaded {
		panic("AWS configuration is required for the selected options")
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

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("Redis is required for carts", zap.Error(err))
	}

	var publisher events.Publisher
	switch cfg.EventBus {
	case config.EventBusSNS:
		publisher = events.NewSNSPublisher(awspkg.NewSNSClient(awsCfg), cfg.SNSTopicARN)
	default:
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	var metrics *awspkg.MetricsClient
	if cfg.MetricsEnabled {
		metrics = awspkg.NewMetricsClient(awsCfg, os.Getenv("METRICS_NAMESPACE"), true)
	}

	cartService := services.NewCartService(
		database.NewCartRepository(redisClient, cfg.CartTTL),
		clients.NewProductClient(cfg.ProductServiceURL, cfg.ProductTimeout),
		publisher,
		log.Named("cart"),
	)
	if metrics != nil {
		cartService.WithMetrics(metrics)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst, 10*time.Minute)
	go limiter.Run(limiterCtx)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.RateLimitMiddleware(limiter),
		middleware.MetricsMiddleware(metrics, serviceName),
		middleware.Timeout(cfg.RequestTimeout),
	)

	routes.RegisterCartRoutes(router, controllers.NewCartController(cartService), auth.NewTokenValidator(cfg.JWTSecret), cfg.TrustGatewayHeaders)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Cart Service is running", zap.String("port", cfg.Port), zap.String("event_bus", cfg.EventBus))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		log.Error("Failed to close event publisher", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}
	log.Info("Server shutdown complete.")
}
