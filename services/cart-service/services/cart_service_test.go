package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/models"
	apperrors "github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/errors"
)

type fakeStore struct {
	carts   map[string]*models.Cart
	keys    map[string]string
	saveErr error
	delErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{carts: map[string]*models.Cart{}, keys: map[string]string{}}
}

func (f *fakeStore) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	c, ok := f.carts[userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	return &cp, nil
}

func (f *fakeStore) SaveCart(_ context.Context, cart *models.Cart) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	f.carts[cart.UserID] = &cp
	return nil
}

func (f *fakeStore) DeleteCart(_ context.Context, userID string) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.carts, userID)
	return nil
}

func (f *fakeStore) ClaimCheckout(_ context.Context, key, checkoutID string, _ time.Duration) (bool, error) {
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = checkoutID
	return true, nil
}

func (f *fakeStore) ReleaseCheckout(_ context.Context, key string) error {
	delete(f.keys, key)
	return nil
}

type fakeProducts map[string]*models.ProductSnapshot

func (f fakeProducts) GetProduct(_ context.Context, id string) (*models.ProductSnapshot, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, apperrors.NotFound("Product not found")
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.CheckoutEvent
	err    error
}

func (p *fakePublisher) PublishCheckout(_ context.Context, e models.CheckoutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type countingMetrics struct{ counts map[string]int }

func (m *countingMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.counts[name]++
	return nil
}

func catalog() fakeProducts {
	return fakeProducts{
		"p1": {ID: "p1", Name: "Fries A", PacketPrice: 10.10, StockQuantity: 5},
		"p2": {ID: "p2", Name: "Wedges", PacketPrice: 0.20, StockQuantity: 100},
	}
}

func newService() (*CartService, *fakeStore, *fakePublisher) {
	store, pub := newFakeStore(), &fakePublisher{}
	return NewCartService(store, catalog(), pub, nil), store, pub
}

func TestGetCartEmpty(t *testing.T) {
	svc, _, _ := newService()
	cart, err := svc.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", cart.UserID)
	assert.Empty(t, cart.Items)
}

func TestAddItem(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "u1", "p1", 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "u1", "p1", " 3 ")
	require.NoError(t, err)

	assert.Equal(t, 5, cart.Quantity("p1"))
	assert.Equal(t, 5, store.carts["u1"].Quantity("p1"))
}

func TestAddItemValidation(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()

	for _, q := range []interface{}{nil, "abc", 0, -1, 1.5, ""} {
		_, err := svc.AddItem(ctx, "u1", "p1", q)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument, "%v", q)
	}
	_, err := svc.AddItem(ctx, "u1", "", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = svc.AddItem(ctx, "u1", "nope", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, store.carts)
}

func TestAddItemStorageFailure(t *testing.T) {
	svc, store, _ := newService()
	store.saveErr = errors.New("redis down")

	_, err := svc.AddItem(context.Background(), "u1", "p1", 1)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestRemoveItem(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.RemoveItem(ctx, "u1", "p1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.AddItem(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.RemoveItem(ctx, "u1", "p2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	cart, err := svc.RemoveItem(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClearCart(t *testing.T) {
	svc, store, _ := newService()
	_, err := svc.AddItem(context.Background(), "u1", "p1", 1)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(context.Background(), "u1"))
	assert.Empty(t, store.carts)
}

func TestCheckout(t *testing.T) {
	svc, store, pub := newService()
	metrics := &countingMetrics{counts: map[string]int{}}
	svc.WithMetrics(metrics)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "u1", "p1", 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", "p2", 3)
	require.NoError(t, err)

	summary, err := svc.Checkout(ctx, "u1", "")
	require.NoError(t, err)

	require.Len(t, summary.Lines, 2)
	assert.Equal(t, "Fries A", summary.Lines[0].Name)
	assert.True(t, summary.Lines[0].LineTotal.Equal(decimal.RequireFromString("30.3")))
	assert.True(t, summary.Lines[1].LineTotal.Equal(decimal.RequireFromString("0.6")))
	assert.Equal(t, "30.90", summary.Total.StringFixed(2))
	assert.Equal(t, 6, summary.ItemCount)

	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventCheckoutRequested, pub.events[0].Event)
	assert.Equal(t, summary.CheckoutID, pub.events[0].CheckoutID)
	assert.Empty(t, store.carts)
	assert.Equal(t, 1, metrics.counts["CartCheckouts"])
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _, pub := newService()
	_, err := svc.Checkout(context.Background(), "u1", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	assert.Empty(t, pub.events)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	svc, store, pub := newService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "u1", "p1", 6)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, "u1", "key-1")
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	assert.Contains(t, apperrors.From(err).Message, "Insufficient stock for Fries A")
	assert.Empty(t, pub.events)
	assert.NotEmpty(t, store.carts)
	assert.Empty(t, store.keys, "failed checkout releases its key")
}

func TestCheckoutPublishFailureKeepsCart(t *testing.T) {
	svc, store, pub := newService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "u1", "p2", 1)
	require.NoError(t, err)
	pub.err = errors.New("broker down")

	_, err = svc.Checkout(ctx, "u1", "")
	assert.ErrorIs(t, err, apperrors.ErrStorage)
	assert.NotEmpty(t, store.carts)
}

func TestCheckoutIdempotencyKey(t *testing.T) {
	svc, _, pub := newService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "u1", "p2", 1)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, "u1", "key-1")
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "u1", "p2", 1)
	require.NoError(t, err)
	_, err = svc.Checkout(ctx, "u1", "key-1")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateEntity)
	assert.Len(t, pub.events, 1)
}

func TestCheckoutMissingProduct(t *testing.T) {
	store, pub := newFakeStore(), &fakePublisher{}
	store.carts["u1"] = &models.Cart{UserID: "u1", Items: []models.CartItem{{ProductID: "gone", Quantity: 1}}}
	svc := NewCartService(store, catalog(), pub, nil)

	_, err := svc.Checkout(context.Background(), "u1", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, pub.events)
}
