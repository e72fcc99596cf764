package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/models"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/middleware"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/response"
)

const (
	msgInternal = "Something went wrong."
	msgFallback = "An unexpected error occurred"

	requestTimeout = 15 * time.Second
)

// CartServiceAPI is implemented by services.CartService.
type CartServiceAPI interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity interface{}) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error)
	ClearCart(ctx context.Context, userID string) error
	Checkout(ctx context.Context, userID, idempotencyKey string) (*models.CheckoutSummary, error)
}

type addItemRequest struct {
	Quantity interface{} `json:"quantity"`
}

type CartController struct {
	service CartServiceAPI
}

func NewCartController(service CartServiceAPI) *CartController {
	return &CartController{service: service}
}

// user resolves the authenticated user or writes a 400 and returns false.
func user(c *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "User ID is required.", err.Error())
		return "", false
	}
	return userID, true
}

func (cc *CartController) GetCart(c *gin.Context) {
	userID, ok := user(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	cart, err := cc.service.GetCart(ctx, userID)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}
	response.Success(c, http.StatusOK, "Cart fetched successfully.", cart)
}

// AddItem handles POST /cart/add/:productId with {"quantity": n}.
func (cc *CartController) AddItem(c *gin.Context) {
	userID, ok := user(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Product ID and quantity are required.", "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	cart, err := cc.service.AddItem(ctx, userID, c.Param("productId"), req.Quantity)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}
	response.Success(c, http.StatusOK, "Product added to cart successfully.", cart)
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	userID, ok := user(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	cart, err := cc.service.RemoveItem(ctx, userID, c.Param("productId"))
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}
	response.Success(c, http.StatusOK, "Product removed from cart.", cart)
}

func (cc *CartController) ClearCart(c *gin.Context) {
	userID, ok := user(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := cc.service.ClearCart(ctx, userID); err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}
	response.Success(c, http.StatusOK, "Cart cleared.", nil)
}

// Checkout honours an optional Idempotency-Key header.
func (cc *CartController) Checkout(c *gin.Context) {
	userID, ok := user(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	summary, err := cc.service.Checkout(ctx, userID, c.GetHeader("Idempotency-Key"))
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}
	response.Success(c, http.StatusOK, "Checkout initiated.", summary)
}
