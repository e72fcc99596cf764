package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductRepository is the MongoDB ProductRepo.
type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection("products"),
	}
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return translate(err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ProductRepository) FindOne(ctx context.Context, filter map[string]interface{}) (*models.Product, error) {
	return r.findOne(ctx, bson.M(filter))
}

func (r *ProductRepository) findOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, filter).Decode(&product); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]*models.Product, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *ProductRepository) FindPaginated(ctx context.Context, q models.ProductQuery) ([]*models.Product, int64, error) {
	filter := queryFilter(q)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}

	sortDir := q.SortPrice
	if sortDir == 0 {
		sortDir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "packetPrice", Value: sortDir}, {Key: "_id", Value: 1}}).
		SetSkip(q.Skip).
		SetLimit(q.Limit)

	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func queryFilter(q models.ProductQuery) bson.M {
	filter := bson.M{}
	price := bson.M{}
	if q.PriceMin != nil {
		price["$gte"] = *q.PriceMin
	}
	if q.PriceMax != nil {
		price["$lte"] = *q.PriceMax
	}
	if len(price) > 0 {
		filter["packetPrice"] = price
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	return filter
}

func (r *ProductRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	products := []*models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func (r *ProductRepository) UpdateByID(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.Product, error) {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	set["updatedAt"] = time.Now().UTC()

	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *ProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, delta float64) (*models.Product, error) {
	update := bson.M{
		"$inc": bson.M{models.FieldStockQuantity: delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *ProductRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, models.FieldCategory, bson.M{})
	if err != nil {
		return nil, translate(err)
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// EnsureIndexes creates the unique name index that backs duplicate detection
// and a price index for listing.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_name")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "packetPrice", Value: 1}}, Options: options.Index().SetName("category_price")},
	})
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateName, err)
	default:
		return err
	}
}
