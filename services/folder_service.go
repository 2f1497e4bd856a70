package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"nimbusdrive/models"
	"nimbusdrive/repository"
)

// FolderContents is the browsing view of one folder: the folder itself plus
// its direct, non-deleted children.
type FolderContents struct {
	Folder  *models.Folder  `json:"folder,omitempty"`
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

// FolderService owns the folder side of the hierarchical node store: tree
// shape, breadcrumbs and the acyclicity invariant.
type FolderService struct {
	nodes  repository.NodeStore
	locks  *TreeLocker
	logger *zap.SugaredLogger
}

func NewFolderService(nodes repository.NodeStore, locks *TreeLocker, logger *zap.SugaredLogger) *FolderService {
	return &FolderService{nodes: nodes, locks: locks, logger: logger}
}

// Create makes a folder under parentID (nil for root). Duplicate sibling
// names are allowed.
func (s *FolderService) Create(ctx context.Context, owner primitive.ObjectID, name string, parentID *primitive.ObjectID) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if err := validateNodeName(name); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	if parentID != nil {
		if _, err := s.liveFolder(ctx, owner, *parentID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	folder := &models.Folder{
		ID:        primitive.NewObjectID(),
		Name:      name,
		ParentID:  parentID,
		OwnerID:   owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.nodes.CreateFolder(ctx, folder); err != nil {
		return nil, err
	}
	if parentID != nil {
		if err := s.adjustItemCount(ctx, *parentID, 1); err != nil {
			return nil, err
		}
	}

	s.logger.Infow("folder created", "folder", folder.ID.Hex(), "owner", owner.Hex())
	return folder, nil
}

// Contents returns the folder plus its direct non-deleted children. A nil
// id lists the account's root level.
func (s *FolderService) Contents(ctx context.Context, owner primitive.ObjectID, id *primitive.ObjectID) (*FolderContents, error) {
	contents := &FolderContents{Folders: []models.Folder{}, Files: []models.File{}}

	if id != nil {
		folder, err := s.liveFolder(ctx, owner, *id)
		if err != nil {
			return nil, err
		}
		contents.Folder = folder
	}

	folders, err := s.nodes.ChildFolders(ctx, owner, id, false)
	if err != nil {
		return nil, err
	}
	files, err := s.nodes.ChildFiles(ctx, owner, id, false)
	if err != nil {
		return nil, err
	}
	if folders != nil {
		contents.Folders = folders
	}
	if files != nil {
		contents.Files = files
	}
	return contents, nil
}

// Path resolves the breadcrumb: every ancestor from the root down to and
// including the folder itself. A missing ancestor is a NotFound for the
// whole chain.
func (s *FolderService) Path(ctx context.Context, owner, id primitive.ObjectID) ([]models.Folder, error) {
	folder, err := s.liveFolder(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	path := []models.Folder{*folder}
	seen := map[primitive.ObjectID]bool{id: true}
	current := folder
	for current.ParentID != nil {
		parentID := *current.ParentID
		if seen[parentID] {
			return nil, fmt.Errorf("%w: parent chain of folder %s revisits %s", ErrCycleDetected, id.Hex(), parentID.Hex())
		}
		seen[parentID] = true

		parent, err := s.nodes.Folder(ctx, parentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: ancestor %s of folder %s", ErrNotFound, parentID.Hex(), id.Hex())
			}
			return nil, err
		}
		path = append([]models.Folder{*parent}, path...)
		current = parent
	}
	return path, nil
}

// Rename updates the display name; sibling duplicates stay legal.
func (s *FolderService) Rename(ctx context.Context, owner, id primitive.ObjectID, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if err := validateNodeName(name); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	folder, err := s.liveFolder(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	folder.Name = name
	folder.UpdatedAt = time.Now().UTC()
	if err := s.nodes.UpdateFolder(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// Move re-parents the folder. Fails with ErrCycleDetected when the target
// is the folder itself or any of its descendants, leaving the tree
// unchanged.
func (s *FolderService) Move(ctx context.Context, owner, id primitive.ObjectID, newParentID *primitive.ObjectID) (*models.Folder, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	folder, err := s.liveFolder(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if newParentID != nil {
		if *newParentID == id {
			return nil, fmt.Errorf("%w: folder %s into itself", ErrCycleDetected, id.Hex())
		}
		if _, err := s.liveFolder(ctx, owner, *newParentID); err != nil {
			return nil, err
		}
		onChain, err := s.onAncestorChain(ctx, *newParentID, id)
		if err != nil {
			return nil, err
		}
		if onChain {
			return nil, fmt.Errorf("%w: folder %s into its descendant %s", ErrCycleDetected, id.Hex(), newParentID.Hex())
		}
	}

	oldParentID := folder.ParentID
	folder.ParentID = newParentID
	folder.UpdatedAt = time.Now().UTC()
	if err := s.nodes.UpdateFolder(ctx, folder); err != nil {
		return nil, err
	}

	if err := s.shiftItemCounts(ctx, oldParentID, newParentID); err != nil {
		return nil, err
	}
	return folder, nil
}

// onAncestorChain reports whether target appears on start's parent chain,
// start included. O(depth); the walk tracks visited ids so corrupt data
// cannot loop it forever.
func (s *FolderService) onAncestorChain(ctx context.Context, start, target primitive.ObjectID) (bool, error) {
	seen := map[primitive.ObjectID]bool{}
	current := start
	for {
		if current == target {
			return true, nil
		}
		if seen[current] {
			return false, fmt.Errorf("%w: parent chain revisits %s", ErrCycleDetected, current.Hex())
		}
		seen[current] = true

		folder, err := s.nodes.Folder(ctx, current)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return false, fmt.Errorf("%w: ancestor %s", ErrNotFound, current.Hex())
			}
			return false, err
		}
		if folder.ParentID == nil {
			return false, nil
		}
		current = *folder.ParentID
	}
}

// liveFolder loads a folder that exists, belongs to owner and is not in
// trash. Ownership mismatches come back as NotFound.
func (s *FolderService) liveFolder(ctx context.Context, owner, id primitive.ObjectID) (*models.Folder, error) {
	folder, err := s.nodes.Folder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: folder %s", ErrNotFound, id.Hex())
		}
		return nil, err
	}
	if folder.OwnerID != owner || folder.IsDeleted {
		return nil, fmt.Errorf("%w: folder %s", ErrNotFound, id.Hex())
	}
	return folder, nil
}

func (s *FolderService) adjustItemCount(ctx context.Context, folderID primitive.ObjectID, delta int) error {
	folder, err := s.nodes.Folder(ctx, folderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	folder.ItemCount += delta
	if folder.ItemCount < 0 {
		folder.ItemCount = 0
	}
	return s.nodes.UpdateFolder(ctx, folder)
}

func (s *FolderService) shiftItemCounts(ctx context.Context, from, to *primitive.ObjectID) error {
	if from != nil {
		if err := s.adjustItemCount(ctx, *from, -1); err != nil {
			return err
		}
	}
	if to != nil {
		if err := s.adjustItemCount(ctx, *to, 1); err != nil {
			return err
		}
	}
	return nil
}

func validateNodeName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if len(name) > 255 {
		return fmt.Errorf("%w: name exceeds 255 characters", ErrValidation)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: name contains invalid characters", ErrValidation)
	}
	return nil
}
