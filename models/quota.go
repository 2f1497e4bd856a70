package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuotaLedger tracks one account's storage usage against its plan limit.
// Version is a monotonic counter used for optimistic concurrency: every
// successful write bumps it, and writers that observed a stale version
// retry instead of losing the update.
type QuotaLedger struct {
	AccountID primitive.ObjectID `bson:"account_id" json:"userId"`
	Used      int64              `bson:"used" json:"used"`
	Limit     int64              `bson:"limit" json:"limit"`
	Version   int64              `bson:"version" json:"-"`
}
