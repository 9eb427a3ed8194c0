package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Template struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name" validate:"required,min=2,max=120"`
	Slug       string             `bson:"slug" json:"slug" validate:"required,lowercase"`
	Category   string             `bson:"category" json:"category" validate:"required"`
	PriceCents int64              `bson:"price_cents" json:"priceCents" validate:"min=0"`
	Currency   string             `bson:"currency" json:"currency" validate:"required,len=3"`
	Status     string             `bson:"status" json:"status" validate:"required,oneof=draft published suspended"`
	PreviewURL string             `bson:"preview_url" json:"previewUrl"`
	Author     string             `bson:"author" json:"author" validate:"required"`
	Sales      int64              `bson:"sales" json:"sales"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}
