package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusRefunded  = "refunded"
	OrderStatusCancelled = "cancelled"
)

type OrderItem struct {
	Kind       string             `bson:"kind" json:"kind" validate:"required,oneof=application template"`
	ProductID  primitive.ObjectID `bson:"product_id" json:"productId" validate:"required"`
	Title      string             `bson:"title" json:"title" validate:"required"`
	UnitCents  int64              `bson:"unit_cents" json:"unitCents" validate:"min=0"`
	Quantity   int                `bson:"quantity" json:"quantity" validate:"min=1"`
}

type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference  string             `bson:"reference" json:"reference"`
	BuyerEmail string             `bson:"buyer_email" json:"buyerEmail" validate:"required,email"`
	Items      []OrderItem        `bson:"items" json:"items" validate:"required,min=1,dive"`
	TotalCents int64              `bson:"total_cents" json:"totalCents"`
	FeeCents   int64              `bson:"fee_cents" json:"feeCents"`
	Currency   string             `bson:"currency" json:"currency" validate:"required,len=3"`
	PlatformID primitive.ObjectID `bson:"platform_id" json:"platformId" validate:"required"`
	Status     string             `bson:"status" json:"status"`
	PaidAt     *time.Time         `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	RefundedAt *time.Time         `bson:"refunded_at,omitempty" json:"refundedAt,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}
