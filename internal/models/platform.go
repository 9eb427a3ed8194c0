package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Platform is a configured payment platform merchants can settle through.
type Platform struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name" validate:"required,min=2,max=80"`
	Provider    string             `bson:"provider" json:"provider" validate:"required,oneof=stripe paypal adyen manual"`
	FeeBasisPts int                `bson:"fee_basis_pts" json:"feeBasisPts" validate:"min=0,max=10000"`
	Currencies  []string           `bson:"currencies" json:"currencies" validate:"required,min=1,dive,len=3"`
	Enabled     bool               `bson:"enabled" json:"enabled"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
