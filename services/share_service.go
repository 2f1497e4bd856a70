package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
	"nimbusdrive/repository"
)

// ShareService is the sharing capability. The ACL model behind a grant is
// deliberately unspecified; implementations only promise that a successful
// call produced a durable grant for the principal.
type ShareService interface {
	Share(ctx context.Context, owner primitive.ObjectID, resourceType string, resourceID primitive.ObjectID, principal string) (*models.ShareGrant, error)
}

// GrantShareService records share grants with an opaque access token. It
// validates the resource the same way the star index does and leaves
// enforcement to whatever consumes the grants.
type GrantShareService struct {
	nodes  repository.NodeStore
	shares repository.ShareStore
}

func NewGrantShareService(nodes repository.NodeStore, shares repository.ShareStore) *GrantShareService {
	return &GrantShareService{nodes: nodes, shares: shares}
}

var _ ShareService = (*GrantShareService)(nil)

func (s *GrantShareService) Share(ctx context.Context, owner primitive.ObjectID, resourceType string, resourceID primitive.ObjectID, principal string) (*models.ShareGrant, error) {
	principal = strings.TrimSpace(strings.ToLower(principal))
	if principal == "" || !strings.Contains(principal, "@") {
		return nil, fmt.Errorf("%w: principal must be an email address", ErrValidation)
	}

	switch resourceType {
	case models.ResourceFile:
		file, err := s.nodes.File(ctx, resourceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: file %s", ErrNotFound, resourceID.Hex())
			}
			return nil, err
		}
		if file.OwnerID != owner || file.IsDeleted || file.Status != models.FileStatusActive {
			return nil, fmt.Errorf("%w: file %s", ErrNotFound, resourceID.Hex())
		}
	case models.ResourceFolder:
		folder, err := s.nodes.Folder(ctx, resourceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: folder %s", ErrNotFound, resourceID.Hex())
			}
			return nil, err
		}
		if folder.OwnerID != owner || folder.IsDeleted {
			return nil, fmt.Errorf("%w: folder %s", ErrNotFound, resourceID.Hex())
		}
	default:
		return nil, fmt.Errorf("%w: unknown resource type %q", ErrValidation, resourceType)
	}

	grant := &models.ShareGrant{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		GrantedBy:    owner,
		Principal:    principal,
		Token:        uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.shares.CreateShare(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}
