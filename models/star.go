package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StarEntry is the secondary index behind the starred view. At most one
// entry exists per (account, resource type, resource id); the denormalized
// Starred flag on the node mirrors it.
type StarEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID    primitive.ObjectID `bson:"account_id" json:"accountId"`
	ResourceType string             `bson:"resource_type" json:"resourceType"`
	ResourceID   primitive.ObjectID `bson:"resource_id" json:"resourceId"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

// StarredItem is the enriched entry returned by the starred listing.
type StarredItem struct {
	ResourceType string             `json:"resourceType"`
	ResourceID   primitive.ObjectID `json:"resourceId"`
	Name         string             `json:"name"`
	Size         int64              `json:"size,omitempty"`
	MimeType     string             `json:"mimeType,omitempty"`
	StarredAt    time.Time          `json:"starredAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
