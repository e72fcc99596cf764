package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	awspkg "github.com/MeetKhetani2003/Groovy-Frozen-Server/pkg/aws"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/models"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/services"
)

const (
	ProductCachePrefix     = "product:detail:"
	ProductListCachePrefix = "products:v:"
	CategoriesCachePrefix  = "categories:v:"
	CacheVersionKey        = "products:version"
)

// CacheManager caches product reads in Redis. List and category keys embed
// a version number; bumping it invalidates them all at once. A nil
// *CacheManager is valid and caches nothing.
type CacheManager struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics services.MetricsRecorder
}

func NewCacheManager(rdb *redis.Client, ttl time.Duration) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheManager{redis: rdb, ttl: ttl}
}

// WithMetrics records hit and miss counts; nil disables them.
func (cm *CacheManager) WithMetrics(m services.MetricsRecorder) *CacheManager {
	if cm != nil {
		cm.metrics = m
	}
	return cm
}

func (cm *CacheManager) enabled() bool { return cm != nil && cm.redis != nil }

func (cm *CacheManager) record(hit bool) {
	if cm.metrics == nil {
		return
	}
	metric := awspkg.MetricCacheMisses
	if hit {
		metric = awspkg.MetricCacheHits
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = cm.metrics.RecordCount(ctx, metric, map[string]string{"Service": "product-service"})
	}()
}

// GetProduct retrieves a cached product
func (cm *CacheManager) GetProduct(ctx context.Context, id string) (*models.Product, bool) {
	if !cm.enabled() {
		return nil, false
	}
	var product models.Product
	if !cm.getJSON(ctx, ProductCachePrefix+id, &product) {
		return nil, false
	}
	return &product, true
}

// SetProductAsync caches a single product asynchronously
func (cm *CacheManager) SetProductAsync(id string, product *models.Product) {
	if !cm.enabled() {
		return
	}
	cm.setAsync(func(context.Context) (string, error) { return ProductCachePrefix + id, nil }, product)
}

// GetProductList retrieves a cached product page
func (cm *CacheManager) GetProductList(ctx context.Context, params services.ListProductsParams) (*models.ProductPage, bool) {
	if !cm.enabled() {
		return nil, false
	}
	version, err := cm.getCacheVersion(ctx)
	if err != nil {
		return nil, false
	}
	var page models.ProductPage
	if !cm.getJSON(ctx, listCacheKey(version, params), &page) {
		return nil, false
	}
	return &page, true
}

// SetProductListAsync caches a product page asynchronously
func (cm *CacheManager) SetProductListAsync(params services.ListProductsParams, page *models.ProductPage) {
	if !cm.enabled() {
		return
	}
	cm.setAsync(func(ctx context.Context) (string, error) {
		version, err := cm.getCacheVersion(ctx)
		if err != nil {
			return "", err
		}
		return listCacheKey(version, params), nil
	}, page)
}

func (cm *CacheManager) GetCategories(ctx context.Context) ([]string, bool) {
	if !cm.enabled() {
		return nil, false
	}
	version, err := cm.getCacheVersion(ctx)
	if err != nil {
		return nil, false
	}
	var categories []string
	if !cm.getJSON(ctx, categoriesCacheKey(version), &categories) {
		return nil, false
	}
	return categories, true
}

func (cm *CacheManager) SetCategoriesAsync(categories []string) {
	if !cm.enabled() {
		return
	}
	cm.setAsync(func(ctx context.Context) (string, error) {
		version, err := cm.getCacheVersion(ctx)
		if err != nil {
			return "", err
		}
		return categoriesCacheKey(version), nil
	}, categories)
}

// InvalidateProduct bumps the list version and drops the product's entry.
// Pass an empty id after creates, which have no cached entry yet.
func (cm *CacheManager) InvalidateProduct(ctx context.Context, id string) {
	if !cm.enabled() {
		return
	}
	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		zap.L().Error("Failed to invalidate cache", zap.Error(err), zap.String("product_id", id))
	} else {
		zap.L().Debug("Cache invalidated", zap.Int64("new_version", newVersion))
	}
	if id == "" {
		return
	}
	if err := cm.redis.Del(ctx, ProductCachePrefix+id).Err(); err != nil {
		zap.L().Warn("Failed to delete product cache", zap.Error(err), zap.String("product_id", id))
	}
}

func (cm *CacheManager) getJSON(ctx context.Context, key string, dst interface{}) bool {
	data, err := cm.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("Cache read failed", zap.Error(err), zap.String("key", key))
		}
		cm.record(false)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		zap.L().Warn("Failed to unmarshal cached value", zap.Error(err), zap.String("key", key))
		cm.record(false)
		return false
	}
	cm.record(true)
	return true
}

func (cm *CacheManager) setAsync(key func(ctx context.Context) (string, error), value interface{}) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		k, err := key(bgCtx)
		if err != nil {
			return
		}
		data, err := json.Marshal(value)
		if err != nil {
			zap.L().Warn("Failed to marshal value for cache", zap.Error(err), zap.String("key", k))
			return
		}
		if err := cm.redis.Set(bgCtx, k, data, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to write cache", zap.Error(err), zap.String("key", k))
		}
	}()
}

// getCacheVersion reads the version key, initialising it on first use.
func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if errors.Is(err, redis.Nil) {
		// SetNX so a concurrent Incr is never overwritten.
		if err := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return cm.redis.Get(ctx, CacheVersionKey).Int64()
	}
	if err == nil {
		return 0, fmt.Errorf("invalid cache version %d", ver)
	}
	return 0, err
}

func listCacheKey(version int64, p services.ListProductsParams) string {
	return fmt.Sprintf("%s%d:p:%d:l:%d:c:%s:s:%s:min:%s:max:%s",
		ProductListCachePrefix,
		version,
		p.Page,
		p.Limit,
		p.Category,
		p.SortByPrice,
		formatFloatForCache(p.PriceMin),
		formatFloatForCache(p.PriceMax),
	)
}

func categoriesCacheKey(version int64) string {
	return CategoriesCachePrefix + strconv.FormatInt(version, 10)
}

func formatFloatForCache(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
