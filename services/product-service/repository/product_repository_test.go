package repository

import (
	"context"
	"testing"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestProductRepositoryMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create assigns id and timestamps", func(mt *mtest.T) {
		repo := &ProductRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &models.Product{Name: "Fries A"}
		require.NoError(t, repo.Create(ctx, p))
		assert.False(t, p.ID.IsZero())
		assert.False(t, p.CreatedAt.IsZero())
	})

	mt.Run("create duplicate name", func(mt *mtest.T) {
		repo := &ProductRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: products index: uniq_name",
		}))

		err := repo.Create(ctx, &models.Product{Name: "Fries A"})
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := &ProductRepository{collection: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Fries A"},
			{Key: "packetPrice", Value: 120.5},
		}))

		p, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, 120.5, p.PacketPrice)
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		repo := &ProductRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := repo.FindByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("update returns new document", func(mt *mtest.T) {
		repo := &ProductRepository{collection: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "_id", Value: id}, {Key: "thumbnail", Value: "https://img/new.jpg"}}},
		})

		p, err := repo.UpdateByID(ctx, id, map[string]interface{}{"thumbnail": "https://img/new.jpg"})
		require.NoError(t, err)
		assert.Equal(t, "https://img/new.jpg", p.Thumbnail)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := &ProductRepository{collection: mt.Coll}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := repo.UpdateByID(ctx, primitive.NewObjectID(), map[string]interface{}{"name": "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := &ProductRepository{collection: mt.Coll}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})

		err := repo.DeleteByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("distinct categories sorted", func(mt *mtest.T) {
		repo := &ProductRepository{collection: mt.Coll}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "values", Value: bson.A{"nuggets", "fries"}}})

		cats, err := repo.DistinctCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"fries", "nuggets"}, cats)
	})

	mt.Run("paginated", func(mt *mtest.T) {
		repo := &ProductRepository{collection: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "a"}},
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "b"}},
			),
		)

		items, total, err := repo.FindPaginated(ctx, models.ProductQuery{SortPrice: 1, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, items, 2)
	})
}

func TestQueryFilter(t *testing.T) {
	lo, hi := 10.0, 50.0
	f := queryFilter(models.ProductQuery{PriceMin: &lo, PriceMax: &hi, Category: "fries"})

	assert.Equal(t, bson.M{"$gte": 10.0, "$lte": 50.0}, f["packetPrice"])
	assert.Equal(t, "fries", f["category"])
	assert.Empty(t, queryFilter(models.ProductQuery{}))
}
