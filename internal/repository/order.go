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

// OrderRepository defines the interface for order-related database
// operations.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, params FilterOrdersParams) ([]*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
}

// FilterOrdersParams defines the parameters for filtering and paginating
// orders. UserID nil lists all users' orders (administrative view).
type FilterOrdersParams struct {
	UserID *bson.ObjectID
	Status *model.OrderStatus
	Limit  uint64
	Offset uint64
}

const orderCollection = "orders"

type orderMongoRepository struct {
	db *mongo.Database
}

func NewOrderMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) OrderRepository {
	collection := db.Collection(orderCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create order indexes")
	}

	return &orderMongoRepository{db: db}
}

func (r *orderMongoRepository) CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	result, err := r.db.Collection(orderCollection).InsertOne(ctx, order)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		order.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return order, nil
}

func (r *orderMongoRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(orderCollection).FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var order model.Order
	if err := result.Decode(&order); err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderMongoRepository) ListOrders(ctx context.Context, params FilterOrdersParams) ([]*model.Order, error) {
	findOptions := options.Find()

	limit := params.Limit
	if limit == 0 {
		limit = 10
	}
	findOptions.SetLimit(int64(limit))

	if params.Offset > 0 {
		findOptions.SetSkip(int64(params.Offset))
	}

	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}})

	filter := bson.M{}
	if params.UserID != nil {
		filter["user_id"] = *params.UserID
	}
	if params.Status != nil {
		filter["status"] = *params.Status
	}

	cursor, err := r.db.Collection(orderCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []*model.Order
	for cursor.Next(ctx) {
		var order model.Order
		if err := cursor.Decode(&order); err != nil {
			return nil, err
		}
		orders = append(orders, &order)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderMongoRepository) UpdateOrderStatus(
	ctx context.Context,
	id string,
	status model.OrderStatus,
) (*model.Order, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(orderCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var order model.Order
	if err := result.Decode(&order); err != nil {
		return nil, err
	}

	return &order, nil
}
