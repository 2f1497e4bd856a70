package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resource types shared by the star index, trash routes and share grants.
const (
	ResourceFile   = "file"
	ResourceFolder = "folder"
)

// File upload lifecycle. A file created through the upload-url endpoint is
// provisional until the client confirms the blob PUT; provisional files hold
// no quota and are invisible to every listing.
const (
	FileStatusProvisional = "provisional"
	FileStatusActive      = "active"
)

type File struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name       string              `bson:"name" json:"name"`
	ParentID   *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"`
	OwnerID    primitive.ObjectID  `bson:"owner_id" json:"ownerId"`
	Size       int64               `bson:"size" json:"size"`
	MimeType   string              `bson:"mime_type" json:"mimeType"`
	StorageKey string              `bson:"storage_key" json:"-"`
	Status     string              `bson:"status" json:"-"`
	Starred    bool                `bson:"starred" json:"starred"`
	IsDeleted  bool                `bson:"is_deleted" json:"isDeleted"`
	DeletedAt  *time.Time          `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
	TrashRoot  bool                `bson:"trash_root" json:"-"`
	CreatedAt  time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updated_at" json:"updatedAt"`
}

type Folder struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name     string              `bson:"name" json:"name"`
	ParentID *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"`
	OwnerID  primitive.ObjectID  `bson:"owner_id" json:"ownerId"`
	// ItemCount is the number of direct, non-deleted children (files and
	// folders). Maintained in the same critical section as every child
	// mutation, never recomputed on read.
	ItemCount int        `bson:"item_count" json:"itemCount"`
	Starred   bool       `bson:"starred" json:"starred"`
	IsDeleted bool       `bson:"is_deleted" json:"isDeleted"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
	TrashRoot bool       `bson:"trash_root" json:"-"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}
