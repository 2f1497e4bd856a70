package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShareGrant records that a resource was shared with an external principal
// (an email address). The ACL model behind a grant is intentionally left to
// the ShareService implementation.
type ShareGrant struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ResourceType string             `bson:"resource_type" json:"resourceType"`
	ResourceID   primitive.ObjectID `bson:"resource_id" json:"resourceId"`
	GrantedBy    primitive.ObjectID `bson:"granted_by" json:"grantedBy"`
	Principal    string             `bson:"principal" json:"principal"`
	Token        string             `bson:"token" json:"token"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}
