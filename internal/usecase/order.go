package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/repository"
)

// OrderUsecase defines the business logic for order placement and retrieval.
type OrderUsecase interface {
	CreateOrder(ctx context.Context, userID bson.ObjectID, params CreateOrderParams) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, params repository.FilterOrdersParams) ([]*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
}

// CreateOrderParams defines the parameters for placing an order.
type CreateOrderParams struct {
	Items      []OrderItemParams
	CouponCode string
}

// OrderItemParams is a requested order line.
type OrderItemParams struct {
	ProductID string
	Quantity  int64
}

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is not available")
	ErrInsufficientStock = errors.New("insufficient product stock")
	ErrEmptyOrder        = errors.New("order has no items")
)

type orderUsecase struct {
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	couponUsecase CouponUsecase
	logger        *zerolog.Logger
}

// NewOrderUsecase creates a new instance of OrderUsecase.
func NewOrderUsecase(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	couponUsecase CouponUsecase,
	logger *zerolog.Logger,
) OrderUsecase {
	return &orderUsecase{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		couponUsecase: couponUsecase,
		logger:        logger,
	}
}

func (u *orderUsecase) CreateOrder(
	ctx context.Context,
	userID bson.ObjectID,
	params CreateOrderParams,
) (*model.Order, error) {
	if len(params.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	items, totalAmount, err := u.priceItems(ctx, params.Items)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		Number:      uuid.NewString(),
		UserID:      userID,
		Items:       items,
		TotalAmount: totalAmount,
		FinalAmount: totalAmount,
		Status:      model.OrderStatusPending,
	}

	if params.CouponCode != "" {
		evaluation, err := u.couponUsecase.Redeem(ctx, params.CouponCode, totalAmount)
		if err != nil {
			return nil, err
		}

		order.CouponCode = evaluation.Coupon.Code
		order.DiscountAmount = evaluation.DiscountAmount
		order.FinalAmount = evaluation.FinalAmount
	}

	created, err := u.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		// The reserved coupon use must not leak when the order never came to
		// exist.
		if order.CouponCode != "" {
			if releaseErr := u.couponUsecase.Release(ctx, order.CouponCode); releaseErr != nil {
				u.logger.Error().Err(releaseErr).Str("coupon", order.CouponCode).
					Msg("failed to release coupon use after order creation failure")
			}
		}
		return nil, err
	}

	u.deductStock(ctx, created)

	return created, nil
}

func (u *orderUsecase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := u.orderRepo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

func (u *orderUsecase) ListOrders(ctx context.Context, params repository.FilterOrdersParams) ([]*model.Order, error) {
	return u.orderRepo.ListOrders(ctx, params)
}

func (u *orderUsecase) UpdateOrderStatus(
	ctx context.Context,
	id string,
	status model.OrderStatus,
) (*model.Order, error) {
	order, err := u.orderRepo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

// priceItems resolves each requested line against the catalog, using current
// prices, and returns the priced lines with the order total.
func (u *orderUsecase) priceItems(ctx context.Context, requested []OrderItemParams) ([]model.OrderItem, float64, error) {
	items := make([]model.OrderItem, 0, len(requested))
	var totalAmount float64

	for _, item := range requested {
		product, err := u.productRepo.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, 0, ErrProductNotFound
			}
			return nil, 0, err
		}

		if !product.IsActive {
			return nil, 0, ErrProductInactive
		}

		if product.Stock < item.Quantity {
			return nil, 0, ErrInsufficientStock
		}

		items = append(items, model.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
		totalAmount += product.Price * float64(item.Quantity)
	}

	return items, totalAmount, nil
}

// deductStock applies the order's quantities to the catalog. Each deduction
// is guarded against going negative; a line that lost a stock race is logged
// and left for fulfilment to reconcile rather than failing the placed order.
func (u *orderUsecase) deductStock(ctx context.Context, order *model.Order) {
	for _, item := range order.Items {
		if err := u.productRepo.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			u.logger.Error().Err(err).
				Str("order", order.Number).
				Str("product", item.ProductID.Hex()).
				Msg("failed to deduct stock")
		}
	}
}
