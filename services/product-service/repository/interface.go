package repository

import (
	"context"
	"errors"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when an identifier does not resolve to a product.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicateName is returned when the storage uniqueness constraint on
	// name rejects a write.
	ErrDuplicateName = errors.New("product name already exists")
)

// ProductRepo defines the operations used by product-service.
// Filters passed to FindOne are plain field/value equality maps so adapters
// can translate them without exposing driver types.
type ProductRepo interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindOne(ctx context.Context, filter map[string]interface{}) (*models.Product, error)
	FindAll(ctx context.Context) ([]*models.Product, error)
	FindPaginated(ctx context.Context, q models.ProductQuery) ([]*models.Product, int64, error)
	// UpdateByID sets only the given fields and bumps updatedAt, returning the
	// updated record.
	UpdateByID(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.Product, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	DistinctCategories(ctx context.Context) ([]string, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, delta float64) (*models.Product, error)
	EnsureIndexes(ctx context.Context) error
}
