package models

import "time"

// Trashed items are kept restorable for this long before the retention
// sweep purges them.
const TrashRetention = 30 * 24 * time.Hour

// TrashContents lists the trash roots of one account: nodes the user
// trashed explicitly, not descendants swept along by a folder cascade.
type TrashContents struct {
	Files   []File   `json:"files"`
	Folders []Folder `json:"folders"`
}
