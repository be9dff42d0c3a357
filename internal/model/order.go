package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// OrderStatus is the fulfilment status of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem is a single line of an order, priced at the time the order was
// placed.
type OrderItem struct {
	ProductID bson.ObjectID `bson:"product_id" json:"product_id"`
	Name      string        `bson:"name"       json:"name"`
	Quantity  int64         `bson:"quantity"   json:"quantity"`
	UnitPrice float64       `bson:"unit_price" json:"unit_price"`
}

// Order is a placed order. DiscountAmount and CouponCode are set only when a
// coupon was applied; FinalAmount is TotalAmount minus the discount and is
// never negative.
type Order struct {
	ID             bson.ObjectID `bson:"_id,omitempty"  json:"id"`
	Number         string        `bson:"number"         json:"number"`
	UserID         bson.ObjectID `bson:"user_id"        json:"user_id"`
	Items          []OrderItem   `bson:"items"          json:"items"`
	TotalAmount    float64       `bson:"total_amount"   json:"total_amount"`
	CouponCode     string        `bson:"coupon_code,omitempty" json:"coupon_code,omitempty"`
	DiscountAmount float64       `bson:"discount_amount" json:"discount_amount"`
	FinalAmount    float64       `bson:"final_amount"   json:"final_amount"`
	Status         OrderStatus   `bson:"status"         json:"status"`
	CreatedAt      time.Time     `bson:"created_at"     json:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at"     json:"updated_at"`
}
