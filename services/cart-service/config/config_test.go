package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSecrets map[string]string

func (m mapSecrets) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

func baseEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("TRUST_GATEWAY_HEADERS", "")
	t.Setenv("EVENT_BUS", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_PASSWORD", "pw")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CART_TTL", "")
}

func TestLoadDefaults(t *testing.T) {
	baseEnv(t)
	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, EventBusKafka, cfg.EventBus)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "redis://:pw@cache:6380/2", cfg.RedisURL)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTL)
	assert.False(t, cfg.NeedsAWS())
}

func TestLoadRedisURLWins(t *testing.T) {
	baseEnv(t)
	t.Setenv("REDIS_URL", "redis://redis:6379/0")
	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "redis://redis:6379/0", cfg.RedisURL)
}

func TestLoadValidation(t *testing.T) {
	baseEnv(t)
	t.Setenv("EVENT_BUS", "sns")
	_, err := Load(context.Background(), nil)
	assert.ErrorContains(t, err, "SNS_CHECKOUT_TOPIC_ARN")

	t.Setenv("SNS_CHECKOUT_TOPIC_ARN", "arn:aws:sns:us-east-1:000000000000:checkout")
	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, cfg.NeedsAWS())

	baseEnv(t)
	t.Setenv("JWT_SECRET", "")
	_, err = Load(context.Background(), nil)
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("TRUST_GATEWAY_HEADERS", "true")
	_, err = Load(context.Background(), nil)
	assert.NoError(t, err)
}

func TestLoadSecretOverridesEnv(t *testing.T) {
	baseEnv(t)
	cfg, err := Load(context.Background(), mapSecrets{"cart/JWT_SECRET": "from-sm"})
	require.NoError(t, err)
	assert.Equal(t, "from-sm", cfg.JWTSecret)
}
