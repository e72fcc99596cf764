package database

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig is either a URL or discrete host settings; URL wins.
type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

// Options resolves the config into client options.
func (c RedisConfig) Options() (*redis.Options, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid Redis URL: %w", err)
		}
		return opts, nil
	}
	host, port := c.Host, c.Port
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: c.Password,
		DB:       c.DB,
	}, nil
}

// NewRedisClient builds a client and pings it. A failed ping is returned
// together with the client so callers may run without a cache.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return client, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", opts.Addr))
	return client, nil
}
