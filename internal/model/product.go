package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Product is a catalog item.
type Product struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name"          json:"name"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64       `bson:"price"         json:"price"`
	Stock       int64         `bson:"stock"         json:"stock"`
	Category    string        `bson:"category,omitempty" json:"category,omitempty"`
	IsActive    bool          `bson:"is_active"     json:"is_active"`
	CreatedAt   time.Time     `bson:"created_at"    json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"    json:"updated_at"`
}
