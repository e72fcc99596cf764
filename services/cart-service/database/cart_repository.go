package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/models"
)

// CartRepository stores one JSON document per user. Every save refreshes
// the TTL, so idle carts expire.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func checkoutKey(key string) string {
	return "idem:cart:" + key
}

// GetCart returns nil, nil when the user has no cart.
func (r *CartRepository) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}

func (r *CartRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(cart.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *CartRepository) DeleteCart(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// GetCheckout returns the checkout id recorded for an idempotency key, or ""
// when the key is unused.
func (r *CartRepository) GetCheckout(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, checkoutKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get idempotency key: %w", err)
	}
	return val, nil
}

// ClaimCheckout records checkoutID under key unless the key is already taken,
// in which case it returns false.
func (r *CartRepository) ClaimCheckout(ctx context.Context, key, checkoutID string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, checkoutKey(key), checkoutID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	return ok, nil
}

// ReleaseCheckout frees a claimed key after a failed checkout so the client
// can retry.
func (r *CartRepository) ReleaseCheckout(ctx context.Context, key string) error {
	return r.client.Del(ctx, checkoutKey(key)).Err()
}
