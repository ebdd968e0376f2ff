package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Caller holds the structure for the callers collection in mongo. A caller is
// the minimal citizen account provisioned the first time a phone number dials in.
type Caller struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone" json:"phone"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	Language  string             `bson:"language" json:"language"`
	City      string             `bson:"city" json:"city"`
	State     string             `bson:"state" json:"state"`
	Latitude  float64            `bson:"latitude" json:"latitude"`
	Longitude float64            `bson:"longitude" json:"longitude"`
	Verified  bool               `bson:"isVerified" json:"isVerified"`
	CreatedAt primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
}
