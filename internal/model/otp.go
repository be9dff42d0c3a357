package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// OTPPurpose namespaces one-time codes so a signup code can never be accepted
// for a password reset or vice versa.
type OTPPurpose string

const (
	OTPPurposeSignup        OTPPurpose = "signup"
	OTPPurposePasswordReset OTPPurpose = "password_reset"
)

// OneTimeCode is an ephemeral proof of email ownership. The code is stored
// only in hashed form and auto-expires via a TTL index on ExpiresAt.
type OneTimeCode struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	Purpose   OTPPurpose    `bson:"purpose"`
	CodeHash  string        `bson:"code_hash"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}
