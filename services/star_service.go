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

// StarService maintains the star index and the denormalized Starred flag on
// nodes. Both are written inside the owner's tree lock so they can never
// diverge.
type StarService struct {
	nodes  repository.NodeStore
	stars  repository.StarStore
	locks  *TreeLocker
	logger *zap.SugaredLogger
}

func NewStarService(nodes repository.NodeStore, stars repository.StarStore, locks *TreeLocker, logger *zap.SugaredLogger) *StarService {
	return &StarService{nodes: nodes, stars: stars, locks: locks, logger: logger}
}

// Toggle flips the star on a resource and returns the new state. Creating
// the entry when absent and removing it when present makes a double toggle
// a round trip back to the original state.
func (s *StarService) Toggle(ctx context.Context, owner primitive.ObjectID, resourceType string, resourceID primitive.ObjectID) (bool, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	entry, err := s.stars.Star(ctx, owner, resourceType, resourceID)
	switch {
	case err == nil:
		if err := s.stars.DeleteStar(ctx, entry.ID); err != nil {
			return false, err
		}
		if err := s.setNodeStarred(ctx, owner, resourceType, resourceID, false); err != nil {
			return false, err
		}
		return false, nil

	case errors.Is(err, repository.ErrNotFound):
		// Starring validates the node first so a stale id cannot leave a
		// dangling index entry.
		if err := s.setNodeStarred(ctx, owner, resourceType, resourceID, true); err != nil {
			return false, err
		}
		if err := s.stars.CreateStar(ctx, &models.StarEntry{
			AccountID:    owner,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			CreatedAt:    time.Now().UTC(),
		}); err != nil {
			return false, err
		}
		return true, nil

	default:
		return false, err
	}
}

// Starred returns the account's starred resources, most recently starred
// first, skipping anything that has since been trashed or purged.
func (s *StarService) Starred(ctx context.Context, owner primitive.ObjectID) ([]models.StarredItem, error) {
	entries, err := s.stars.StarsByAccount(ctx, owner)
	if err != nil {
		return nil, err
	}

	items := []models.StarredItem{}
	for _, entry := range entries {
		switch entry.ResourceType {
		case models.ResourceFile:
			file, err := s.nodes.File(ctx, entry.ResourceID)
			if err != nil || file.IsDeleted || file.Status != models.FileStatusActive {
				continue
			}
			items = append(items, models.StarredItem{
				ResourceType: models.ResourceFile,
				ResourceID:   file.ID,
				Name:         file.Name,
				Size:         file.Size,
				MimeType:     file.MimeType,
				StarredAt:    entry.CreatedAt,
				UpdatedAt:    file.UpdatedAt,
			})
		case models.ResourceFolder:
			folder, err := s.nodes.Folder(ctx, entry.ResourceID)
			if err != nil || folder.IsDeleted {
				continue
			}
			items = append(items, models.StarredItem{
				ResourceType: models.ResourceFolder,
				ResourceID:   folder.ID,
				Name:         folder.Name,
				StarredAt:    entry.CreatedAt,
				UpdatedAt:    folder.UpdatedAt,
			})
		}
	}
	return items, nil
}

func (s *StarService) setNodeStarred(ctx context.Context, owner primitive.ObjectID, resourceType string, resourceID primitive.ObjectID, starred bool) error {
	now := time.Now().UTC()
	switch resourceType {
	case models.ResourceFile:
		file, err := s.nodes.File(ctx, resourceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: file %s", ErrNotFound, resourceID.Hex())
			}
			return err
		}
		if file.OwnerID != owner || file.IsDeleted || file.Status != models.FileStatusActive {
			return fmt.Errorf("%w: file %s", ErrNotFound, resourceID.Hex())
		}
		file.Starred = starred
		file.UpdatedAt = now
		return s.nodes.UpdateFile(ctx, file)

	case models.ResourceFolder:
		folder, err := s.nodes.Folder(ctx, resourceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: folder %s", ErrNotFound, resourceID.Hex())
			}
			return err
		}
		if folder.OwnerID != owner || folder.IsDeleted {
			return fmt.Errorf("%w: folder %s", ErrNotFound, resourceID.Hex())
		}
		folder.Starred = starred
		folder.UpdatedAt = now
		return s.nodes.UpdateFolder(ctx, folder)

	default:
		return fmt.Errorf("%w: unknown resource type %q", ErrValidation, resourceType)
	}
}
