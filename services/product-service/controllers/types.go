package controllers

import (
	"context"
	"io"
	"time"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/models"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/services"
)

// Default configuration values
const (
	DefaultCacheTTL       = 10 * time.Minute
	DefaultContextTimeout = 30 * time.Second
)

// ProductServiceAPI defines the interface for product service operations
type ProductServiceAPI interface {
	CreateProduct(ctx context.Context, fields map[string]interface{}, files *services.ImageFiles) (*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, params services.ListProductsParams) (*models.ProductPage, error)
	ListAllProducts(ctx context.Context) ([]*models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	UpdateProduct(ctx context.Context, id string, fields map[string]interface{}, files *services.ImageFiles) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) (*models.DeleteConfirmation, error)
	AddStockQuantity(ctx context.Context, id string, quantity interface{}) (*models.Product, error)
	ValidateBulkImport(ctx context.Context, r io.Reader, filename string) (*models.BulkImportResult, error)
	ImportProducts(ctx context.Context, r io.Reader, filename string) (*models.BulkImportResult, error)
}

// StockRequest is the body of PATCH /products/:id/stock. Quantity stays
// untyped so the service decides what counts as a number.
type StockRequest struct {
	Quantity interface{} `json:"quantity"`
}
