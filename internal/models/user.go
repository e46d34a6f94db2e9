package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Trust score bounds and defaults shared by both computation paths.
const (
	TrustMin     = 0
	TrustMax     = 100
	TrustDefault = 30
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email      string             `bson:"email" json:"email" validate:"required,email"`
	Password   string             `bson:"password,omitempty" json:"-"`
	Name       string             `bson:"name" json:"name" validate:"required,max=100"`
	University string             `bson:"university,omitempty" json:"university,omitempty"`
	Bio        string             `bson:"bio,omitempty" json:"bio,omitempty" validate:"max=2000"`
	Skills     []string           `bson:"skills,omitempty" json:"skills,omitempty"`
	Links      map[string]string  `bson:"links,omitempty" json:"links,omitempty"`
	TrustScore int                `bson:"trust_score" json:"trust_score"`
	Role       string             `bson:"role" json:"role"`
	IsActive   bool               `bson:"is_active" json:"is_active"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// ClampTrust forces a score into the valid [TrustMin, TrustMax] range.
func ClampTrust(score int) int {
	if score < TrustMin {
		return TrustMin
	}
	if score > TrustMax {
		return TrustMax
	}
	return score
}
