package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"nimbusdrive/models"
	"nimbusdrive/repository"
)

// TrashService owns the soft-delete lifecycle: Live -> Trashed ->
// {Restored, Purged}. Trashing a folder cascades to every live descendant;
// restoring never cascades; purging is terminal and idempotent.
type TrashService struct {
	nodes   repository.NodeStore
	tx      repository.Transactor
	quota   *QuotaService
	folders *FolderService
	blobs   BlobStore
	locks   *TreeLocker
	logger  *zap.SugaredLogger
}

func NewTrashService(nodes repository.NodeStore, tx repository.Transactor, quota *QuotaService, folders *FolderService, blobs BlobStore, locks *TreeLocker, logger *zap.SugaredLogger) *TrashService {
	return &TrashService{
		nodes:   nodes,
		tx:      tx,
		quota:   quota,
		folders: folders,
		blobs:   blobs,
		locks:   locks,
		logger:  logger,
	}
}

// List returns the account's trash roots: nodes the user trashed
// explicitly. Descendants swept along by a folder cascade stay out of the
// view.
func (s *TrashService) List(ctx context.Context, owner primitive.ObjectID) (*models.TrashContents, error) {
	return s.nodes.TrashRoots(ctx, owner)
}

// Trash soft-deletes a node. For folders the whole live subtree is marked
// deleted in one store transaction under the owner's tree lock, so the
// cascade is all-or-nothing against both crashes and concurrent tree
// mutations. Trashing an already-trashed node is a no-op.
func (s *TrashService) Trash(ctx context.Context, owner primitive.ObjectID, resourceType string, id primitive.ObjectID) error {
	unlock := s.locks.Lock(owner)
	defer unlock()

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		switch resourceType {
		case models.ResourceFile:
			file, err := s.ownedActiveFile(ctx, owner, id)
			if err != nil {
				return err
			}
			if file.IsDeleted {
				return nil
			}
			s.markFileDeleted(file, now, true)
			if err := s.nodes.UpdateFile(ctx, file); err != nil {
				return err
			}
			if file.ParentID != nil {
				if err := s.folders.adjustItemCount(ctx, *file.ParentID, -1); err != nil {
					return err
				}
			}
			return nil

		case models.ResourceFolder:
			folder, err := s.ownedFolder(ctx, owner, id)
			if err != nil {
				return err
			}
			if folder.IsDeleted {
				return nil
			}
			s.markFolderDeleted(folder, now, true)
			if err := s.nodes.UpdateFolder(ctx, folder); err != nil {
				return err
			}
			if folder.ParentID != nil {
				if err := s.folders.adjustItemCount(ctx, *folder.ParentID, -1); err != nil {
					return err
				}
			}
			return s.cascadeTrash(ctx, owner, folder.ID, now)

		default:
			return fmt.Errorf("%w: unknown resource type %q", ErrValidation, resourceType)
		}
	})
	if err != nil {
		return err
	}

	s.logger.Infow("node trashed", "type", resourceType, "id", id.Hex(), "owner", owner.Hex())
	return nil
}

// cascadeTrash marks every live descendant deleted. Nodes the user had
// already trashed individually keep their own trash-root flag and
// timestamp.
func (s *TrashService) cascadeTrash(ctx context.Context, owner, folderID primitive.ObjectID, now time.Time) error {
	files, err := s.nodes.ChildFiles(ctx, owner, &folderID, false)
	if err != nil {
		return err
	}
	for i := range files {
		file := files[i]
		s.markFileDeleted(&file, now, false)
		if err := s.nodes.UpdateFile(ctx, &file); err != nil {
			return err
		}
		if err := s.folders.adjustItemCount(ctx, folderID, -1); err != nil {
			return err
		}
	}

	subfolders, err := s.nodes.ChildFolders(ctx, owner, &folderID, false)
	if err != nil {
		return err
	}
	for i := range subfolders {
		sub := subfolders[i]
		s.markFolderDeleted(&sub, now, false)
		if err := s.nodes.UpdateFolder(ctx, &sub); err != nil {
			return err
		}
		if err := s.folders.adjustItemCount(ctx, folderID, -1); err != nil {
			return err
		}
		if err := s.cascadeTrash(ctx, owner, sub.ID, now); err != nil {
			return err
		}
	}
	return nil
}

// Restore clears the deletion flags of the node itself, never of its
// descendants: a file the user trashed individually before a folder-level
// cascade stays trashed when the folder comes back.
func (s *TrashService) Restore(ctx context.Context, owner primitive.ObjectID, resourceType string, id primitive.ObjectID) error {
	unlock := s.locks.Lock(owner)
	defer unlock()

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		switch resourceType {
		case models.ResourceFile:
			file, err := s.ownedActiveFile(ctx, owner, id)
			if err != nil {
				return err
			}
			if !file.IsDeleted {
				return fmt.Errorf("%w: file %s is not in trash", ErrNotFound, id.Hex())
			}
			file.IsDeleted = false
			file.DeletedAt = nil
			file.TrashRoot = false
			file.UpdatedAt = now
			if err := s.nodes.UpdateFile(ctx, file); err != nil {
				return err
			}
			if file.ParentID != nil {
				if err := s.folders.adjustItemCount(ctx, *file.ParentID, 1); err != nil {
					return err
				}
			}
			return nil

		case models.ResourceFolder:
			folder, err := s.ownedFolder(ctx, owner, id)
			if err != nil {
				return err
			}
			if !folder.IsDeleted {
				return fmt.Errorf("%w: folder %s is not in trash", ErrNotFound, id.Hex())
			}
			folder.IsDeleted = false
			folder.DeletedAt = nil
			folder.TrashRoot = false
			folder.UpdatedAt = now
			if err := s.nodes.UpdateFolder(ctx, folder); err != nil {
				return err
			}
			if folder.ParentID != nil {
				if err := s.folders.adjustItemCount(ctx, *folder.ParentID, 1); err != nil {
					return err
				}
			}
			return nil

		default:
			return fmt.Errorf("%w: unknown resource type %q", ErrValidation, resourceType)
		}
	})
	if err != nil {
		return err
	}

	s.logger.Infow("node restored", "type", resourceType, "id", id.Hex(), "owner", owner.Hex())
	return nil
}

// Purge permanently removes a trashed node. Folder purge cascades over the
// whole subtree; each active file releases its quota reservation exactly
// once. Purging an id that no longer exists is a no-op success.
func (s *TrashService) Purge(ctx context.Context, owner primitive.ObjectID, resourceType string, id primitive.ObjectID) error {
	unlock := s.locks.Lock(owner)
	defer unlock()
	return s.purgeLocked(ctx, owner, resourceType, id)
}

// purgeLocked wraps the purge in one store transaction: the node deletions
// and the quota release land together or not at all. Blob deletion is
// best-effort inside it; an orphaned blob is cheaper than a dangling record.
func (s *TrashService) purgeLocked(ctx context.Context, owner primitive.ObjectID, resourceType string, id primitive.ObjectID) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.purgeNode(ctx, owner, resourceType, id)
	})
}

func (s *TrashService) purgeNode(ctx context.Context, owner primitive.ObjectID, resourceType string, id primitive.ObjectID) error {
	switch resourceType {
	case models.ResourceFile:
		file, err := s.nodes.File(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		if file.OwnerID != owner {
			return nil
		}
		if !file.IsDeleted {
			return fmt.Errorf("%w: file %s is not in trash", ErrInvalidState, id.Hex())
		}
		return s.purgeFile(ctx, file)

	case models.ResourceFolder:
		folder, err := s.nodes.Folder(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		if folder.OwnerID != owner {
			return nil
		}
		if !folder.IsDeleted {
			return fmt.Errorf("%w: folder %s is not in trash", ErrInvalidState, id.Hex())
		}
		return s.purgeFolder(ctx, folder)

	default:
		return fmt.Errorf("%w: unknown resource type %q", ErrValidation, resourceType)
	}
}

func (s *TrashService) purgeFile(ctx context.Context, file *models.File) error {
	if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
		// The metadata purge must not hang on blob storage; the orphaned
		// blob is retried by the next sweep of its bucket lifecycle rule.
		s.logger.Warnw("failed to delete blob during purge",
			"file", file.ID.Hex(), "key", file.StorageKey, "error", err)
	}
	if err := s.nodes.DeleteFile(ctx, file.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if file.Status == models.FileStatusActive {
		if err := s.quota.Release(ctx, file.OwnerID, file.Size); err != nil {
			return err
		}
	}
	s.logger.Infow("file purged", "file", file.ID.Hex(), "owner", file.OwnerID.Hex(), "size", file.Size)
	return nil
}

func (s *TrashService) purgeFolder(ctx context.Context, folder *models.Folder) error {
	files, err := s.nodes.ChildFiles(ctx, folder.OwnerID, &folder.ID, true)
	if err != nil {
		return err
	}
	for i := range files {
		if err := s.purgeFile(ctx, &files[i]); err != nil {
			return err
		}
	}

	subfolders, err := s.nodes.ChildFolders(ctx, folder.OwnerID, &folder.ID, true)
	if err != nil {
		return err
	}
	for i := range subfolders {
		if err := s.purgeFolder(ctx, &subfolders[i]); err != nil {
			return err
		}
	}

	if err := s.nodes.DeleteFolder(ctx, folder.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	s.logger.Infow("folder purged", "folder", folder.ID.Hex(), "owner", folder.OwnerID.Hex())
	return nil
}

// SweepExpired purges trash roots deleted at or before the cutoff. It
// checkpoints after every node: a cancelled context stops the sweep between
// nodes and returns the count purged so far, so a restart resumes where it
// left off instead of redoing work.
func (s *TrashService) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	const batchSize = 64

	purged := 0
	for {
		contents, err := s.nodes.ExpiredTrashRoots(ctx, cutoff, batchSize)
		if err != nil {
			return purged, err
		}
		if len(contents.Files) == 0 && len(contents.Folders) == 0 {
			return purged, nil
		}

		for i := range contents.Files {
			if err := ctx.Err(); err != nil {
				return purged, err
			}
			file := contents.Files[i]
			unlock := s.locks.Lock(file.OwnerID)
			err := s.purgeLocked(ctx, file.OwnerID, models.ResourceFile, file.ID)
			unlock()
			if err != nil {
				return purged, err
			}
			purged++
		}
		for i := range contents.Folders {
			if err := ctx.Err(); err != nil {
				return purged, err
			}
			folder := contents.Folders[i]
			unlock := s.locks.Lock(folder.OwnerID)
			err := s.purgeLocked(ctx, folder.OwnerID, models.ResourceFolder, folder.ID)
			unlock()
			if err != nil {
				return purged, err
			}
			purged++
		}
	}
}

func (s *TrashService) markFileDeleted(file *models.File, now time.Time, root bool) {
	deletedAt := now
	file.IsDeleted = true
	file.DeletedAt = &deletedAt
	file.TrashRoot = root
	file.UpdatedAt = now
}

func (s *TrashService) markFolderDeleted(folder *models.Folder, now time.Time, root bool) {
	deletedAt := now
	folder.IsDeleted = true
	folder.DeletedAt = &deletedAt
	folder.TrashRoot = root
	folder.UpdatedAt = now
}

func (s *TrashService) ownedActiveFile(ctx context.Context, owner, id primitive.ObjectID) (*models.File, error) {
	file, err := s.nodes.File(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: file %s", ErrNotFound, id.Hex())
		}
		return nil, err
	}
	if file.OwnerID != owner || file.Status != models.FileStatusActive {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, id.Hex())
	}
	return file, nil
}

func (s *TrashService) ownedFolder(ctx context.Context, owner, id primitive.ObjectID) (*models.Folder, error) {
	folder, err := s.nodes.Folder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: folder %s", ErrNotFound, id.Hex())
		}
		return nil, err
	}
	if folder.OwnerID != owner {
		return nil, fmt.Errorf("%w: folder %s", ErrNotFound, id.Hex())
	}
	return folder, nil
}
