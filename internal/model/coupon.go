package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DiscountType determines how a coupon's discount value is applied.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// CouponStatus is the administrative status of a coupon.
type CouponStatus string

const (
	CouponStatusActive    CouponStatus = "Active"
	CouponStatusInactive  CouponStatus = "Inactive"
	CouponStatusExpired   CouponStatus = "Expired"
	CouponStatusSuspended CouponStatus = "Suspended"
)

// Coupon is a discount rule applied to an order total, bounded by usage count
// and an optional validity window.
type Coupon struct {
	ID                bson.ObjectID `bson:"_id,omitempty"        json:"id"`
	Code              string        `bson:"code"                 json:"code"`
	DiscountType      DiscountType  `bson:"discount_type"        json:"discount_type"`
	DiscountValue     float64       `bson:"discount_value"       json:"discount_value"`
	MinOrderAmount    float64       `bson:"min_order_amount"     json:"min_order_amount"`
	MaxDiscountAmount *float64      `bson:"max_discount_amount,omitempty" json:"max_discount_amount,omitempty"`
	ValidFrom         *time.Time    `bson:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidUntil        *time.Time    `bson:"valid_until,omitempty" json:"valid_until,omitempty"`
	UsageLimit        int64         `bson:"usage_limit"          json:"usage_limit"`
	UsedCount         int64         `bson:"used_count"           json:"used_count"`
	IsActive          bool          `bson:"is_active"            json:"is_active"`
	Status            CouponStatus  `bson:"status"               json:"status"`
	CreatedAt         time.Time     `bson:"created_at"           json:"created_at"`
	UpdatedAt         time.Time     `bson:"updated_at"           json:"updated_at"`
}
