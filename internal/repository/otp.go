package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/proxypurple/commerce-api/internal/model"
)

// OTPRepository defines the interface for one-time code operations. Codes are
// keyed by (email, purpose): issuing a new code invalidates all prior codes
// in the same namespace.
type OTPRepository interface {
	// CreateCode stores a new hashed one-time code.
	CreateCode(ctx context.Context, code *model.OneTimeCode) (*model.OneTimeCode, error)

	// GetCode retrieves the current code for an email and purpose.
	GetCode(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OneTimeCode, error)

	// DeleteCodes removes all codes for an email and purpose. It is a no-op
	// when none exist.
	DeleteCodes(ctx context.Context, email string, purpose model.OTPPurpose) error
}

const otpCollection = "one_time_codes"

type otpMongoRepository struct {
	db *mongo.Database
}

// NewOTPMongoRepository creates a MongoDB repository for one-time codes.
// Expired codes are reaped by a TTL index on expires_at.
func NewOTPMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) OTPRepository {
	collection := db.Collection(otpCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}, {Key: "purpose", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create one-time code indexes")
	}

	return &otpMongoRepository{db: db}
}

func (r *otpMongoRepository) CreateCode(
	ctx context.Context,
	code *model.OneTimeCode,
) (*model.OneTimeCode, error) {
	now := time.Now()
	code.CreatedAt = now
	code.UpdatedAt = now

	result, err := r.db.Collection(otpCollection).InsertOne(ctx, code)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		code.ID = objectID
	}

	return code, nil
}

func (r *otpMongoRepository) GetCode(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
) (*model.OneTimeCode, error) {
	result := r.db.Collection(otpCollection).FindOne(ctx, bson.M{
		"email":   email,
		"purpose": purpose,
	})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var code model.OneTimeCode
	if err := result.Decode(&code); err != nil {
		return nil, err
	}

	return &code, nil
}

func (r *otpMongoRepository) DeleteCodes(ctx context.Context, email string, purpose model.OTPPurpose) error {
	_, err := r.db.Collection(otpCollection).DeleteMany(ctx, bson.M{
		"email":   email,
		"purpose": purpose,
	})
	return err
}
