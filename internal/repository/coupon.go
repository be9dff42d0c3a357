package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/proxypurple/commerce-api/internal/model"
)

// CouponRepository defines the interface for coupon-related database
// operations.
type CouponRepository interface {
	CreateCoupon(ctx context.Context, coupon *model.Coupon) (*model.Coupon, error)
	GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error)
	UpdateCoupon(ctx context.Context, id string, params UpdateCouponParams) (*model.Coupon, error)
	DeleteCoupon(ctx context.Context, id string) (*model.Coupon, error)
	ListCoupons(ctx context.Context, limit, offset uint64) ([]*model.Coupon, error)

	// ReserveUse atomically increments used_count, guarded so the count can
	// never exceed the usage limit. It returns mongo.ErrNoDocuments when the
	// coupon is missing, inactive, outside its validity window, or exhausted.
	ReserveUse(ctx context.Context, code string) (*model.Coupon, error)

	// ReleaseUse undoes a prior ReserveUse after a failed order creation.
	ReleaseUse(ctx context.Context, code string) error
}

// UpdateCouponParams defines the optional parameters for updating a coupon.
// Only the fields that are not nil will be updated.
type UpdateCouponParams struct {
	DiscountType      *model.DiscountType
	DiscountValue     *float64
	MinOrderAmount    *float64
	MaxDiscountAmount *float64
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	UsageLimit        *int64
	IsActive          *bool
	Status            *model.CouponStatus
}

const couponCollection = "coupons"

type couponMongoRepository struct {
	db *mongo.Database
}

func NewCouponMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) CouponRepository {
	collection := db.Collection(couponCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "code", Value: 1}, {Key: "is_active", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create coupon indexes")
	}

	return &couponMongoRepository{db: db}
}

func (r *couponMongoRepository) CreateCoupon(ctx context.Context, coupon *model.Coupon) (*model.Coupon, error) {
	now := time.Now()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now

	result, err := r.db.Collection(couponCollection).InsertOne(ctx, coupon)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		coupon.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return coupon, nil
}

func (r *couponMongoRepository) GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	result := r.db.Collection(couponCollection).FindOne(ctx, bson.M{"code": code})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var coupon model.Coupon
	if err := result.Decode(&coupon); err != nil {
		return nil, err
	}

	return &coupon, nil
}

func (r *couponMongoRepository) UpdateCoupon(
	ctx context.Context,
	id string,
	params UpdateCouponParams,
) (*model.Coupon, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	updateMap := bson.M{}
	if params.DiscountType != nil {
		updateMap["discount_type"] = *params.DiscountType
	}
	if params.DiscountValue != nil {
		updateMap["discount_value"] = *params.DiscountValue
	}
	if params.MinOrderAmount != nil {
		updateMap["min_order_amount"] = *params.MinOrderAmount
	}
	if params.MaxDiscountAmount != nil {
		updateMap["max_discount_amount"] = *params.MaxDiscountAmount
	}
	if params.ValidFrom != nil {
		updateMap["valid_from"] = *params.ValidFrom
	}
	if params.ValidUntil != nil {
		updateMap["valid_until"] = *params.ValidUntil
	}
	if params.UsageLimit != nil {
		updateMap["usage_limit"] = *params.UsageLimit
	}
	if params.IsActive != nil {
		updateMap["is_active"] = *params.IsActive
	}
	if params.Status != nil {
		updateMap["status"] = *params.Status
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no coupon fields to update")
	}

	updateMap["updated_at"] = time.Now()

	result := r.db.Collection(couponCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var coupon model.Coupon
	if err := result.Decode(&coupon); err != nil {
		return nil, err
	}

	return &coupon, nil
}

func (r *couponMongoRepository) DeleteCoupon(ctx context.Context, id string) (*model.Coupon, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(couponCollection).FindOneAndDelete(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var coupon model.Coupon
	if err := result.Decode(&coupon); err != nil {
		return nil, err
	}

	return &coupon, nil
}

func (r *couponMongoRepository) ListCoupons(ctx context.Context, limit, offset uint64) ([]*model.Coupon, error) {
	findOptions := options.Find()

	if limit == 0 {
		limit = 10
	}
	findOptions.SetLimit(int64(limit))

	if offset > 0 {
		findOptions.SetSkip(int64(offset))
	}

	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.db.Collection(couponCollection).Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var coupons []*model.Coupon
	for cursor.Next(ctx) {
		var coupon model.Coupon
		if err := cursor.Decode(&coupon); err != nil {
			return nil, err
		}
		coupons = append(coupons, &coupon)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return coupons, nil
}

func (r *couponMongoRepository) ReserveUse(ctx context.Context, code string) (*model.Coupon, error) {
	now := time.Now()

	// The $expr guard makes increment-past-the-limit impossible even under
	// concurrent redemptions; the window predicates keep a coupon that
	// expired since evaluation from being reserved.
	result := r.db.Collection(couponCollection).FindOneAndUpdate(
		ctx,
		bson.M{
			"code":      code,
			"is_active": true,
			"$and": bson.A{
				bson.M{"$or": bson.A{
					bson.M{"valid_from": bson.M{"$exists": false}},
					bson.M{"valid_from": bson.M{"$lte": now}},
				}},
				bson.M{"$or": bson.A{
					bson.M{"valid_until": bson.M{"$exists": false}},
					bson.M{"valid_until": bson.M{"$gte": now}},
				}},
			},
			"$expr": bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}},
		},
		bson.M{
			"$inc": bson.M{"used_count": 1},
			"$set": bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var coupon model.Coupon
	if err := result.Decode(&coupon); err != nil {
		return nil, err
	}

	return &coupon, nil
}

func (r *couponMongoRepository) ReleaseUse(ctx context.Context, code string) error {
	_, err := r.db.Collection(couponCollection).UpdateOne(
		ctx,
		bson.M{
			"code":       code,
			"used_count": bson.M{"$gt": 0},
		},
		bson.M{
			"$inc": bson.M{"used_count": -1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	return err
}
