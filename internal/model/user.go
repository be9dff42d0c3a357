package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is a user's authorization role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an identity record. The password hash is empty for
// OAuth-only accounts; a user with neither a password hash nor a Google ID
// is invalid.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"  json:"id"`
	Email        string        `bson:"email"          json:"email"`
	PasswordHash string        `bson:"password_hash,omitempty" json:"-"`
	FirstName    string        `bson:"first_name,omitempty"    json:"first_name,omitempty"`
	LastName     string        `bson:"last_name,omitempty"     json:"last_name,omitempty"`
	PhoneNumber  string        `bson:"phone_number,omitempty"  json:"phone_number,omitempty"`
	Country      string        `bson:"country,omitempty"       json:"country,omitempty"`
	City         string        `bson:"city,omitempty"          json:"city,omitempty"`
	AddressLine1 string        `bson:"address_line1,omitempty" json:"address_line1,omitempty"`
	AddressLine2 string        `bson:"address_line2,omitempty" json:"address_line2,omitempty"`
	PostalCode   string        `bson:"postal_code,omitempty"   json:"postal_code,omitempty"`
	GoogleID     string        `bson:"google_id,omitempty"     json:"-"`
	Verified     bool          `bson:"verified"       json:"verified"`
	Role         Role          `bson:"role"           json:"role"`
	CreatedAt    time.Time     `bson:"created_at"     json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"     json:"updated_at"`
}

// HasCredentials reports whether the user has at least one way to
// authenticate.
func (u *User) HasCredentials() bool {
	return u.PasswordHash != "" || u.GoogleID != ""
}
