package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Units accepted by StockUnit and PacketUnit.
var Units = []string{"gram", "kg", "piece", "packet", "box"}

// Product is a frozen-food catalog entry. Wire and storage names keep the
// historical spellings (selfLife, temprature, ingrediants) so existing
// clients and documents keep working.
type Product struct {
	ID                    primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name                  string             `json:"name" bson:"name" validate:"required"`
	StockQuantity         float64            `json:"stockQuantity" bson:"stockQuantity"`
	StockUnit             string             `json:"stockUnit" bson:"stockUnit" validate:"required,oneof=gram kg piece packet box"`
	PacketQuantity        float64            `json:"packetQuantity" bson:"packetQuantity"`
	SoldPackets           float64            `json:"soldPackets" bson:"soldPackets"`
	PacketUnit            string             `json:"packetUnit" bson:"packetUnit" validate:"required,oneof=gram kg piece packet box"`
	PacketPrice           float64            `json:"packetPrice" bson:"packetPrice" validate:"gte=0"`
	BoxQuantity           float64            `json:"boxQuantity" bson:"boxQuantity"`
	Category              string             `json:"category" bson:"category" validate:"required"`
	Description           string             `json:"description" bson:"description" validate:"required"`
	Thumbnail             string             `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	DetailedImages        []string           `json:"detailedImages" bson:"detailedImages"`
	PackagingType         string             `json:"packagingType" bson:"packagingType" validate:"required"`
	FriesType             string             `json:"friesType" bson:"friesType" validate:"required"`
	Feature               string             `json:"feature" bson:"feature" validate:"required"`
	ShelfLife             string             `json:"selfLife" bson:"selfLife" validate:"required"`
	StorageMethod         string             `json:"storageMethod" bson:"storageMethod" validate:"required"`
	Temperature           string             `json:"temprature" bson:"temprature" validate:"required"`
	UsageApplication      string             `json:"usageApplication" bson:"usageApplication" validate:"required"`
	RefrigerationRequired bool               `json:"refrigerationRequired" bson:"refrigerationRequired"`
	CountryOfOrigin       string             `json:"countryOfOrigin" bson:"countryOfOrigin" validate:"required"`
	Application           string             `json:"application" bson:"application" validate:"required"`
	FrozenTemperature     string             `json:"frozenTemprature" bson:"frozenTemprature" validate:"required"`
	Ingredients           string             `json:"ingrediants" bson:"ingrediants" validate:"required"`
	Form                  string             `json:"form" bson:"form" validate:"required"`
	CreatedAt             time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ProductQuery describes a filtered, sorted page request.
type ProductQuery struct {
	PriceMin  *float64
	PriceMax  *float64
	Category  string
	SortPrice int // 1 ascending, -1 descending
	Skip      int64
	Limit     int64
}

// ProductPage is the paginated listing returned to clients. HasMore reports
// whether a page after this one exists (Page < TotalPages).
type ProductPage struct {
	Items      []*Product `json:"items"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"totalPages"`
	HasMore    bool       `json:"hasMore"`
}

// DeleteConfirmation is returned after a product and its images are removed.
type DeleteConfirmation struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ImagesDestroyed int    `json:"imagesDestroyed"`
}
