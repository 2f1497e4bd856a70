package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TransactionPending = "pending"
	TransactionSuccess = "success"
	TransactionFailed  = "failed"
)

// Transaction records one storage purchase. Status is terminal once it
// leaves pending; a confirmed transaction raises the account's quota limit.
type Transaction struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID    primitive.ObjectID `bson:"account_id" json:"accountId"`
	PlanID       string             `bson:"plan_id" json:"planId"`
	PlanName     string             `bson:"plan_name" json:"planName"`
	StorageAdded int64              `bson:"storage_added" json:"storageAdded"`
	AmountCents  int64              `bson:"amount_cents" json:"amount"`
	Status       string             `bson:"status" json:"status"`
	FailReason   string             `bson:"fail_reason,omitempty" json:"failReason,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Plan is a purchasable storage tier.
type Plan struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StorageBytes int64  `json:"storageBytes"`
	PriceCents   int64  `json:"priceCents"`
}
