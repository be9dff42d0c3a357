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

// SessionRepository defines the interface for refresh session operations.
type SessionRepository interface {
	// CreateSession inserts a new refresh session.
	CreateSession(ctx context.Context, session *model.Session) (*model.Session, error)

	// ConsumeSession atomically finds and deletes the unexpired session
	// matching the user and token hash. Of any number of concurrent calls
	// presenting the same token, exactly one receives the session; the rest
	// get mongo.ErrNoDocuments.
	ConsumeSession(ctx context.Context, userID bson.ObjectID, tokenHash string, now time.Time) (*model.Session, error)

	// DeleteSession removes the session matching the user and token hash.
	// It is a no-op when none exists.
	DeleteSession(ctx context.Context, userID bson.ObjectID, tokenHash string) error

	// DeleteSessionsByUserID removes all of a user's sessions.
	DeleteSessionsByUserID(ctx context.Context, userID bson.ObjectID) error
}

const sessionCollection = "sessions"

type sessionMongoRepository struct {
	db *mongo.Database
}

// NewSessionMongoRepository creates a MongoDB repository for refresh
// sessions. Expired sessions are reaped by a TTL index on expires_at; the
// unique index on token_hash backs the rotation guarantee.
func NewSessionMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) SessionRepository {
	collection := db.Collection(sessionCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session indexes")
	}

	return &sessionMongoRepository{db: db}
}

func (r *sessionMongoRepository) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.db.Collection(sessionCollection).InsertOne(ctx, session)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		session.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return session, nil
}

func (r *sessionMongoRepository) ConsumeSession(
	ctx context.Context,
	userID bson.ObjectID,
	tokenHash string,
	now time.Time,
) (*model.Session, error) {
	result := r.db.Collection(sessionCollection).FindOneAndDelete(ctx, bson.M{
		"user_id":    userID,
		"token_hash": tokenHash,
		"expires_at": bson.M{"$gt": now},
	})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var session model.Session
	if err := result.Decode(&session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *sessionMongoRepository) DeleteSession(ctx context.Context, userID bson.ObjectID, tokenHash string) error {
	_, err := r.db.Collection(sessionCollection).DeleteOne(ctx, bson.M{
		"user_id":    userID,
		"token_hash": tokenHash,
	})
	return err
}

func (r *sessionMongoRepository) DeleteSessionsByUserID(ctx context.Context, userID bson.ObjectID) error {
	_, err := r.db.Collection(sessionCollection).DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
