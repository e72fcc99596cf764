package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	awspkg "github.com/MeetKhetani2003/Groovy-Frozen-Server/pkg/aws"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/events"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/models"
	apperrors "github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/errors"
)

const (
	msgProductAndQuantity = "Product ID and quantity are required."
	msgInvalidQuantity    = "Quantity must be a positive whole number"
	msgCartNotFound       = "Cart not found"
	msgItemNotInCart      = "Product is not in the cart"
	msgCartEmpty          = "Cart is empty"
	msgCheckoutInProgress = "Checkout already initiated for this request"

	// checkoutKeyTTL bounds how long an idempotency key blocks a replay.
	checkoutKeyTTL = 24 * time.Hour
	maxLookups     = 8
)

// CartStore persists carts and checkout idempotency keys.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, userID string) error
	ClaimCheckout(ctx context.Context, key, checkoutID string, ttl time.Duration) (bool, error)
	ReleaseCheckout(ctx context.Context, key string) error
}

// ProductLookup resolves catalog products.
type ProductLookup interface {
	GetProduct(ctx context.Context, productID string) (*models.ProductSnapshot, error)
}

type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

type CartService struct {
	store     CartStore
	products  ProductLookup
	publisher events.Publisher
	logger    *zap.Logger
	metrics   MetricsRecorder
}

func NewCartService(store CartStore, products ProductLookup, publisher events.Publisher, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{store: store, products: products, publisher: publisher, logger: logger}
}

// WithMetrics enables checkout metrics; nil disables them.
func (s *CartService) WithMetrics(m MetricsRecorder) *CartService {
	s.metrics = m
	return s
}

// GetCart returns the user's cart, empty when none is stored.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("Failed to load cart", err)
	}
	if cart == nil {
		cart = models.NewCart(userID)
	}
	return cart, nil
}

// AddItem adds quantity packets of an existing product to the cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity interface{}) (*models.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" || quantity == nil {
		return nil, apperrors.InvalidArgument(msgProductAndQuantity, nil)
	}
	qty, err := parseQuantity(quantity)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Add(productID, qty)
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, apperrors.Storage("Failed to save cart", err)
	}
	return cart, nil
}

func parseQuantity(v interface{}) (int, error) {
	if str, ok := v.(string); ok {
		v = strings.TrimSpace(str)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, apperrors.InvalidArgument(msgInvalidQuantity, err)
	}
	return int(f), nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("Failed to load cart", err)
	}
	if cart == nil {
		return nil, apperrors.NotFound(msgCartNotFound)
	}
	if !cart.Remove(productID) {
		return nil, apperrors.NotFound(msgItemNotInCart)
	}
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, apperrors.Storage("Failed to update cart", err)
	}
	return cart, nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.store.DeleteCart(ctx, userID); err != nil {
		return apperrors.Storage("Failed to clear cart", err)
	}
	return nil
}

// Checkout prices the cart against current catalog data, checks stock,
// publishes a checkout.requested event and clears the cart. A non-empty
// idempotencyKey makes a repeated request fail with DuplicateEntity instead
// of publishing twice.
func (s *CartService) Checkout(ctx context.Context, userID, idempotencyKey string) (*models.CheckoutSummary, error) {
	checkoutID := uuid.NewString()
	log := s.logger.With(zap.String("user_id", userID), zap.String("checkout_id", checkoutID))

	if idempotencyKey != "" {
		claimed, err := s.store.ClaimCheckout(ctx, idempotencyKey, checkoutID, checkoutKeyTTL)
		if err != nil {
			return nil, apperrors.Storage("Failed to record checkout", err)
		}
		if !claimed {
			return nil, apperrors.DuplicateEntity(msgCheckoutInProgress)
		}
	}

	summary, err := s.checkout(ctx, userID, checkoutID)
	if err != nil {
		if idempotencyKey != "" {
			if relErr := s.store.ReleaseCheckout(context.WithoutCancel(ctx), idempotencyKey); relErr != nil {
				log.Warn("failed to release idempotency key", zap.Error(relErr))
			}
		}
		return nil, err
	}

	if err := s.store.DeleteCart(ctx, userID); err != nil {
		// The event is out; a stale cart is the lesser problem.
		log.Error("failed to clear cart after checkout", zap.Error(err))
	}
	if s.metrics != nil {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricCartCheckouts, map[string]string{"Service": "cart-service"})
	}
	log.Info("checkout requested", zap.String("total", summary.Total.StringFixed(2)))
	return summary, nil
}

func (s *CartService) checkout(ctx context.Context, userID, checkoutID string) (*models.CheckoutSummary, error) {
	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("Failed to load cart", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperrors.InvalidArgument(msgCartEmpty, nil)
	}

	products := make([]*models.ProductSnapshot, len(cart.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLookups)
	for i, item := range cart.Items {
		g.Go(func() error {
			p, err := s.products.GetProduct(gctx, item.ProductID)
			if err != nil {
				return err
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &models.CheckoutSummary{
		CheckoutID: checkoutID,
		UserID:     userID,
		Lines:      make([]models.CheckoutLine, 0, len(cart.Items)),
		Total:      decimal.Zero,
	}
	for i, item := range cart.Items {
		p := products[i]
		if float64(item.Quantity) > p.StockQuantity {
			return nil, apperrors.InvalidArgument(
				fmt.Sprintf("Insufficient stock for %s: requested %d, available %s",
					p.Name, item.Quantity, decimal.NewFromFloat(p.StockQuantity).String()), nil)
		}
		unit := decimal.NewFromFloat(p.PacketPrice)
		line := models.CheckoutLine{
			ProductID: item.ProductID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		summary.Lines = append(summary.Lines, line)
		summary.ItemCount += item.Quantity
		summary.Total = summary.Total.Add(line.LineTotal)
	}

	event := models.CheckoutEvent{
		Event:      models.EventCheckoutRequested,
		CheckoutID: checkoutID,
		UserID:     userID,
		Items:      summary.Lines,
		Total:      summary.Total,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.publisher.PublishCheckout(ctx, event); err != nil {
		return nil, apperrors.Storage("Failed to publish checkout event", err)
	}
	return summary, nil
}
