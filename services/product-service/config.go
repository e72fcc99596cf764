package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	awspkg "github.com/MeetKhetani2003/Groovy-Frozen-Server/pkg/aws"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/controllers"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/database"
)

const (
	imageStoreCloudinary = "cloudinary"
	imageStoreS3         = "s3"

	productStoreMongo  = "mongo"
	productStoreDynamo = "dynamodb"
)

// Config holds all environment variables for the product-service.
type Config struct {
	Env      string
	Port     string
	LogLevel string
	LogFile  string

	MongoURL string
	MongoDB  string
	Redis    database.RedisConfig
	CacheTTL time.Duration

	ProductStore string
	DynamoTable  string

	ImageStore          string
	ImageFolder         string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	S3Bucket            string
	CDNDomain           string

	JWTSecret           string
	TrustGatewayHeaders bool
	AllowedOrigins      []string
	RateLimit           float64
	RateBurst           int

	CloudWatchEnabled bool
	CloudWatchGroup   string
	MetricsEnabled    bool
}

// LoadConfig reads the environment. secrets is consulted for the JWT and
// Cloudinary secrets when non-nil (AWS_USE_SECRETS=true).
func LoadConfig(ctx context.Context, secrets awspkg.SecretGetter) (*Config, error) {
	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8082"),
		LogLevel: os.Getenv("LOG_LEVEL"),
		LogFile:  os.Getenv("LOG_FILE"),

		MongoDB: getEnv("MONGODB_DB", "groovy_frozen"),
		Redis: database.RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		CacheTTL: getEnvDuration("CACHE_TTL", controllers.DefaultCacheTTL),

		ProductStore: strings.ToLower(getEnv("PRODUCT_STORE", productStoreMongo)),
		DynamoTable:  getEnv("DDB_TABLE_PRODUCTS", "Products"),

		ImageStore:          strings.ToLower(getEnv("IMAGE_STORE", imageStoreCloudinary)),
		ImageFolder:         lookupEnv("IMAGE_FOLDER", "groovy-frozen"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		S3Bucket:            getEnv("AWS_S3_BUCKET", "groovy-frozen"),
		CDNDomain:           os.Getenv("AWS_CLOUDFRONT_DOMAIN"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		TrustGatewayHeaders: getEnvBool("TRUST_GATEWAY_HEADERS", false),
		AllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		RateLimit:           getEnvFloat("RATE_LIMIT_RPS", 20),
		RateBurst:           getEnvInt("RATE_LIMIT_BURST", 40),

		CloudWatchEnabled: getEnvBool("CLOUDWATCH_ENABLED", false),
		CloudWatchGroup:   os.Getenv("CLOUDWATCH_LOG_GROUP"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", false),
	}

	// The deployment mode picks the connection string.
	if cfg.Env == "production" {
		cfg.MongoURL = os.Getenv("MONGODB_URL_PROD")
	} else {
		cfg.MongoURL = os.Getenv("MONGODB_URL_DEV")
	}

	var err error
	if secrets != nil {
		if cfg.JWTSecret, err = awspkg.ResolveSecret(ctx, secrets, "product/JWT_SECRET", cfg.JWTSecret); err != nil {
			return nil, err
		}
		if cfg.ImageStore == imageStoreCloudinary {
			if cfg.CloudinaryAPISecret, err = awspkg.ResolveSecret(ctx, secrets, "product/CLOUDINARY_API_SECRET", cfg.CloudinaryAPISecret); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.ProductStore {
	case productStoreMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("MONGODB_URL_DEV or MONGODB_URL_PROD is required for APP_ENV=%s", c.Env)
		}
	case productStoreDynamo:
	default:
		return fmt.Errorf("unknown PRODUCT_STORE %q", c.ProductStore)
	}
	switch c.ImageStore {
	case imageStoreCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
		}
	case imageStoreS3:
	default:
		return fmt.Errorf("unknown IMAGE_STORE %q", c.ImageStore)
	}
	// Public ids are recovered from the last two URL path segments, so the
	// folder must be a single non-empty segment.
	c.ImageFolder = strings.Trim(strings.TrimSpace(c.ImageFolder), "/")
	if c.ImageFolder == "" || strings.Contains(c.ImageFolder, "/") {
		return fmt.Errorf("IMAGE_FOLDER must be a single path segment, got %q", c.ImageFolder)
	}
	return nil
}

// NeedsAWS reports whether any AWS client has to be built.
func (c *Config) NeedsAWS() bool {
	return c.ProductStore == productStoreDynamo || c.ImageStore == imageStoreS3 ||
		c.CloudWatchEnabled || c.MetricsEnabled
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// lookupEnv is getEnv for settings where an explicitly empty value is an
// error rather than a request for the default.
func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
