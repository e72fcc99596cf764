package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	awspkg "github.com/MeetKhetani2003/Groovy-Frozen-Server/pkg/aws"
)

const (
	EventBusKafka = "kafka"
	EventBusSNS   = "sns"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string
	LogFile  string

	RedisURL string
	CartTTL  time.Duration

	ProductServiceURL string
	ProductTimeout    time.Duration

	EventBus     string
	KafkaBrokers []string
	KafkaTopic   string
	SNSTopicARN  string

	JWTSecret           string
	TrustGatewayHeaders bool
	AllowedOrigins      []string
	RateLimit           float64
	RateBurst           int
	RequestTimeout      time.Duration

	CloudWatchEnabled bool
	CloudWatchGroup   string
	MetricsEnabled    bool
}

// Load reads the environment. secrets, when non-nil, supplies the JWT secret.
func Load(ctx context.Context, secrets awspkg.SecretGetter) (*Config, error) {
	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8086"),
		LogLevel: os.Getenv("LOG_LEVEL"),
		LogFile:  os.Getenv("LOG_FILE"),

		RedisURL: redisURL(),
		CartTTL:  getEnvDuration("CART_TTL", 7*24*time.Hour),

		ProductServiceURL: getEnv("PRODUCT_SERVICE_URL", "http://localhost:8082"),
		ProductTimeout:    getEnvDuration("PRODUCT_SERVICE_TIMEOUT", 5*time.Second),

		EventBus:     strings.ToLower(getEnv("EVENT_BUS", EventBusKafka)),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "checkout.requested"),
		SNSTopicARN:  os.Getenv("SNS_CHECKOUT_TOPIC_ARN"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		TrustGatewayHeaders: getEnvBool("TRUST_GATEWAY_HEADERS", false),
		AllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		RateLimit:           getEnvFloat("RATE_LIMIT_RPS", 20),
		RateBurst:           getEnvInt("RATE_LIMIT_BURST", 40),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		CloudWatchEnabled: getEnvBool("CLOUDWATCH_ENABLED", false),
		CloudWatchGroup:   os.Getenv("CLOUDWATCH_LOG_GROUP"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", false),
	}

	if secrets != nil {
		secret, err := awspkg.ResolveSecret(ctx, secrets, "cart/JWT_SECRET", cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
	}

	if cfg.JWTSecret == "" && !cfg.TrustGatewayHeaders {
		return nil, fmt.Errorf("JWT_SECRET is required unless TRUST_GATEWAY_HEADERS=true")
	}
	switch cfg.EventBus {
	case EventBusKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("KAFKA_BROKERS is required")
		}
	case EventBusSNS:
		if cfg.SNSTopicARN == "" {
			return nil, fmt.Errorf("SNS_CHECKOUT_TOPIC_ARN is required for EVENT_BUS=sns")
		}
	default:
		return nil, fmt.Errorf("unknown EVENT_BUS %q", cfg.EventBus)
	}
	return cfg, nil
}

// NeedsAWS reports whether any AWS client has to be built.
func (c *Config) NeedsAWS() bool {
	return c.EventBus == EventBusSNS || c.CloudWatchEnabled || c.MetricsEnabled
}

// redisURL prefers REDIS_URL and otherwise assembles one from the discrete
// REDIS_* settings.
func redisURL() string {
	if u := os.Getenv("REDIS_URL"); u != "" {
		return u
	}
	u := url.URL{
		Scheme: "redis",
		Host:   net.JoinHostPort(getEnv("REDIS_HOST", "localhost"), getEnv("REDIS_PORT", "6379")),
		Path:   "/" + strconv.Itoa(getEnvInt("REDIS_DB", 0)),
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		u.User = url.UserPassword("", pw)
	}
	return u.String()
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
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

// UseSecrets reports whether AWS_USE_SECRETS asks for Secrets Manager.
func UseSecrets() bool {
	return getEnvBool("AWS_USE_SECRETS", false)
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
