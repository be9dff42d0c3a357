package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Session represents a single outstanding refresh credential for a user.
// Only the SHA-256 hash of the refresh token is stored; rotation deletes the
// record, so no refresh token may be used twice.
type Session struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"user_id"`
	TokenHash string        `bson:"token_hash"`
	ExpiresAt time.Time     `bson:"expires_at"`
	IPAddress *string       `bson:"ip_address,omitempty"`
	UserAgent *string       `bson:"user_agent,omitempty"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}
