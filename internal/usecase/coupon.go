package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/repository"
)

// CouponUsecase defines the business logic for coupon evaluation, redemption
// and administration.
type CouponUsecase interface {
	// Evaluate validates the coupon against the order total and reports the
	// discount without consuming a use.
	Evaluate(ctx context.Context, code string, orderTotal float64) (*CouponEvaluation, error)

	// Redeem evaluates the coupon and reserves one use. The reservation must
	// be released if the surrounding order creation fails.
	Redeem(ctx context.Context, code string, orderTotal float64) (*CouponEvaluation, error)

	// Release undoes a reservation made by Redeem.
	Release(ctx context.Context, code string) error

	CreateCoupon(ctx context.Context, coupon *model.Coupon) (*model.Coupon, error)
	GetCoupon(ctx context.Context, code string) (*model.Coupon, error)
	UpdateCoupon(ctx context.Context, id string, params repository.UpdateCouponParams) (*model.Coupon, error)
	DeleteCoupon(ctx context.Context, id string) (*model.Coupon, error)
	ListCoupons(ctx context.Context, limit, offset uint64) ([]*model.Coupon, error)
}

// CouponEvaluation is the outcome of applying a coupon to an order total.
type CouponEvaluation struct {
	Coupon         *model.Coupon
	DiscountAmount float64
	FinalAmount    float64
}

var (
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponInactive      = errors.New("coupon is not active")
	ErrCouponNotYetValid   = errors.New("coupon is not yet valid")
	ErrCouponExpired       = errors.New("coupon has expired")
	ErrCouponUsageExceeded = errors.New("coupon usage limit exceeded")
	ErrBelowMinimumOrder   = errors.New("order total is below the coupon minimum")
)

// ValidateCoupon checks a coupon's activation, validity window and usage
// limit at the given time. Conditions are checked in a fixed order and the
// first failure is reported.
func ValidateCoupon(coupon *model.Coupon, now time.Time) error {
	if !coupon.IsActive {
		return ErrCouponInactive
	}

	if coupon.ValidFrom != nil && coupon.ValidFrom.After(now) {
		return ErrCouponNotYetValid
	}

	if coupon.ValidUntil != nil && coupon.ValidUntil.Before(now) {
		return ErrCouponExpired
	}

	if coupon.UsedCount >= coupon.UsageLimit {
		return ErrCouponUsageExceeded
	}

	return nil
}

// ComputeDiscount computes the discount a coupon yields against an order
// total. The result is always within [0, orderTotal]: a coupon can never make
// the charge negative.
func ComputeDiscount(coupon *model.Coupon, orderTotal float64) (float64, error) {
	if orderTotal < coupon.MinOrderAmount {
		return 0, ErrBelowMinimumOrder
	}

	var discount float64
	if coupon.DiscountType == model.DiscountTypePercentage {
		discount = orderTotal * coupon.DiscountValue / 100
		if coupon.MaxDiscountAmount != nil && discount > *coupon.MaxDiscountAmount {
			discount = *coupon.MaxDiscountAmount
		}
	} else {
		discount = coupon.DiscountValue
	}

	if discount > orderTotal {
		discount = orderTotal
	}
	if discount < 0 {
		discount = 0
	}

	return discount, nil
}

type couponUsecase struct {
	couponRepo repository.CouponRepository
}

// NewCouponUsecase creates a new instance of CouponUsecase.
func NewCouponUsecase(couponRepo repository.CouponRepository) CouponUsecase {
	return &couponUsecase{couponRepo: couponRepo}
}

func (u *couponUsecase) Evaluate(ctx context.Context, code string, orderTotal float64) (*CouponEvaluation, error) {
	coupon, err := u.couponRepo.GetCouponByCode(ctx, normalizeCouponCode(code))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	return evaluate(coupon, orderTotal, time.Now())
}

func (u *couponUsecase) Redeem(ctx context.Context, code string, orderTotal float64) (*CouponEvaluation, error) {
	// Validate and price first so a doomed redemption never touches the
	// usage counter.
	if _, err := u.Evaluate(ctx, code, orderTotal); err != nil {
		return nil, err
	}

	coupon, err := u.couponRepo.ReserveUse(ctx, normalizeCouponCode(code))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Lost a race: the last use went to a concurrent redemption, or
			// the coupon was deactivated in between.
			return nil, ErrCouponUsageExceeded
		}
		return nil, err
	}

	// The reservation already consumed a use, so only the discount is
	// recomputed here; re-running ValidateCoupon would reject the final
	// legitimate use.
	discount, err := ComputeDiscount(coupon, orderTotal)
	if err != nil {
		return nil, err
	}

	return &CouponEvaluation{
		Coupon:         coupon,
		DiscountAmount: discount,
		FinalAmount:    orderTotal - discount,
	}, nil
}

func (u *couponUsecase) Release(ctx context.Context, code string) error {
	return u.couponRepo.ReleaseUse(ctx, normalizeCouponCode(code))
}

func (u *couponUsecase) CreateCoupon(ctx context.Context, coupon *model.Coupon) (*model.Coupon, error) {
	coupon.Code = normalizeCouponCode(coupon.Code)
	if coupon.Status == "" {
		coupon.Status = model.CouponStatusActive
	}

	return u.couponRepo.CreateCoupon(ctx, coupon)
}

func (u *couponUsecase) GetCoupon(ctx context.Context, code string) (*model.Coupon, error) {
	coupon, err := u.couponRepo.GetCouponByCode(ctx, normalizeCouponCode(code))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	return coupon, nil
}

func (u *couponUsecase) UpdateCoupon(
	ctx context.Context,
	id string,
	params repository.UpdateCouponParams,
) (*model.Coupon, error) {
	coupon, err := u.couponRepo.UpdateCoupon(ctx, id, params)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	return coupon, nil
}

func (u *couponUsecase) DeleteCoupon(ctx context.Context, id string) (*model.Coupon, error) {
	coupon, err := u.couponRepo.DeleteCoupon(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	return coupon, nil
}

func (u *couponUsecase) ListCoupons(ctx context.Context, limit, offset uint64) ([]*model.Coupon, error) {
	return u.couponRepo.ListCoupons(ctx, limit, offset)
}

func evaluate(coupon *model.Coupon, orderTotal float64, now time.Time) (*CouponEvaluation, error) {
	if err := ValidateCoupon(coupon, now); err != nil {
		return nil, err
	}

	discount, err := ComputeDiscount(coupon, orderTotal)
	if err != nil {
		return nil, err
	}

	return &CouponEvaluation{
		Coupon:         coupon,
		DiscountAmount: discount,
		FinalAmount:    orderTotal - discount,
	}, nil
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
