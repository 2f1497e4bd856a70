package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionMismatch is returned by UpdateLedger when the stored
	// version differs from the one the caller read.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrDuplicate is returned when inserting an entity that already exists.
	ErrDuplicate = errors.New("duplicate entry")
)

// NodeStore persists files and folders. Listing methods never return
// provisional files; includeDeleted controls whether trashed nodes appear.
type NodeStore interface {
	CreateFolder(ctx context.Context, folder *models.Folder) error
	CreateFile(ctx context.Context, file *models.File) error
	Folder(ctx context.Context, id primitive.ObjectID) (*models.Folder, error)
	File(ctx context.Context, id primitive.ObjectID) (*models.File, error)
	UpdateFolder(ctx context.Context, folder *models.Folder) error
	UpdateFile(ctx context.Context, file *models.File) error
	DeleteFolder(ctx context.Context, id primitive.ObjectID) error
	DeleteFile(ctx context.Context, id primitive.ObjectID) error

	ChildFolders(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, includeDeleted bool) ([]models.Folder, error)
	ChildFiles(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, includeDeleted bool) ([]models.File, error)

	// TrashRoots returns explicitly-trashed nodes, newest deletion first.
	TrashRoots(ctx context.Context, owner primitive.ObjectID) (*models.TrashContents, error)
	// ExpiredTrashRoots returns up to limit trash roots deleted at or
	// before the cutoff, across all accounts.
	ExpiredTrashRoots(ctx context.Context, cutoff time.Time, limit int) (*models.TrashContents, error)

	SearchFolders(ctx context.Context, owner primitive.ObjectID, query string, limit int) ([]models.Folder, error)
	SearchFiles(ctx context.Context, owner primitive.ObjectID, query string, limit int) ([]models.File, error)
	// RecentFiles orders by updatedAt descending, id ascending on ties.
	RecentFiles(ctx context.Context, owner primitive.ObjectID, limit int) ([]models.File, error)
}

// LedgerStore persists quota ledgers. UpdateLedger is a compare-and-swap:
// it matches on (account, version), writes used/limit and bumps the version,
// or fails with ErrVersionMismatch.
type LedgerStore interface {
	Ledger(ctx context.Context, account primitive.ObjectID) (*models.QuotaLedger, error)
	CreateLedger(ctx context.Context, ledger *models.QuotaLedger) error
	UpdateLedger(ctx context.Context, ledger *models.QuotaLedger) error
}

// StarStore persists the star index.
type StarStore interface {
	Star(ctx context.Context, account primitive.ObjectID, resourceType string, resourceID primitive.ObjectID) (*models.StarEntry, error)
	CreateStar(ctx context.Context, entry *models.StarEntry) error
	DeleteStar(ctx context.Context, id primitive.ObjectID) error
	StarsByAccount(ctx context.Context, account primitive.ObjectID) ([]models.StarEntry, error)
}

// TransactionStore persists billing transactions.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	Transaction(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	// TransactionsByAccount returns newest first.
	TransactionsByAccount(ctx context.Context, account primitive.ObjectID) ([]models.Transaction, error)
}

// ShareStore persists share grants.
type ShareStore interface {
	CreateShare(ctx context.Context, grant *models.ShareGrant) error
	SharesByResource(ctx context.Context, resourceType string, resourceID primitive.ObjectID) ([]models.ShareGrant, error)
}

// Transactor runs a function inside one atomic store transaction: either
// every write fn issues through the ctx it receives commits, or none do.
// Multi-document cascades run under it so a crash cannot leave a subtree
// half-trashed.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store aggregates every persistence concern of the drive core.
type Store interface {
	NodeStore
	LedgerStore
	StarStore
	TransactionStore
	ShareStore
	Transactor
}
