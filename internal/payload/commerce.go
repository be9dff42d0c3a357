package payload

import "time"

type EvaluateCouponRequest struct {
	Code       string  `json:"code"        validate:"required"`
	OrderTotal float64 `json:"order_total" validate:"required,gt=0"`
}

type EvaluateCouponResponse struct {
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
}

type CreateCouponRequest struct {
	Code              string     `json:"code"           validate:"required"`
	DiscountType      string     `json:"discount_type"  validate:"required,oneof=percentage fixed"`
	DiscountValue     float64    `json:"discount_value" validate:"required,gte=0"`
	MinOrderAmount    float64    `json:"min_order_amount"    validate:"gte=0"`
	MaxDiscountAmount *float64   `json:"max_discount_amount" validate:"omitempty,gte=0"`
	ValidFrom         *time.Time `json:"valid_from"`
	ValidUntil        *time.Time `json:"valid_until"`
	UsageLimit        int64      `json:"usage_limit" validate:"required,gte=1"`
	IsActive          *bool      `json:"is_active"`
}

type UpdateCouponRequest struct {
	DiscountType      *string    `json:"discount_type"  validate:"omitempty,oneof=percentage fixed"`
	DiscountValue     *float64   `json:"discount_value" validate:"omitempty,gte=0"`
	MinOrderAmount    *float64   `json:"min_order_amount"    validate:"omitempty,gte=0"`
	MaxDiscountAmount *float64   `json:"max_discount_amount" validate:"omitempty,gte=0"`
	ValidFrom         *time.Time `json:"valid_from"`
	ValidUntil        *time.Time `json:"valid_until"`
	UsageLimit        *int64     `json:"usage_limit" validate:"omitempty,gte=1"`
	IsActive          *bool      `json:"is_active"`
	Status            *string    `json:"status" validate:"omitempty,oneof=Active Inactive Expired Suspended"`
}

type CreateProductRequest struct {
	Name        string  `json:"name"        validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price"       validate:"required,gte=0"`
	Stock       int64   `json:"stock"       validate:"gte=0"`
	Category    string  `json:"category"`
	IsActive    *bool   `json:"is_active"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Stock       *int64   `json:"stock" validate:"omitempty,gte=0"`
	Category    *string  `json:"category"`
	IsActive    *bool    `json:"is_active"`
}

type CreateOrderRequest struct {
	Items      []OrderItemRequest `json:"items"       validate:"required,min=1,dive"`
	CouponCode string             `json:"coupon_code"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity"   validate:"required,gte=1"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled"`
}

type UpdateProfileRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	PhoneNumber  *string `json:"phone_number"`
	Country      *string `json:"country"`
	City         *string `json:"city"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	PostalCode   *string `json:"postal_code"`
}
