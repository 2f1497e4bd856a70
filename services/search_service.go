package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
	"nimbusdrive/repository"
)

const (
	defaultSearchLimit = 100
	defaultRecentLimit = 20
)

// SearchResult groups name matches by node kind.
type SearchResult struct {
	Files   []models.File   `json:"files"`
	Folders []models.Folder `json:"folders"`
}

// SearchService is the read-only query layer: substring search and recency
// aggregation over the node store. Results reflect trash state immediately;
// nothing is cached across requests.
type SearchService struct {
	nodes repository.NodeStore
}

func NewSearchService(nodes repository.NodeStore) *SearchService {
	return &SearchService{nodes: nodes}
}

// Search matches the query case-insensitively against node names, scoped to
// the owner's live tree. An empty query matches nothing.
func (s *SearchService) Search(ctx context.Context, owner primitive.ObjectID, query string) (*SearchResult, error) {
	result := &SearchResult{Files: []models.File{}, Folders: []models.Folder{}}
	if strings.TrimSpace(query) == "" {
		return result, nil
	}

	files, err := s.nodes.SearchFiles(ctx, owner, query, defaultSearchLimit)
	if err != nil {
		return nil, err
	}
	folders, err := s.nodes.SearchFolders(ctx, owner, query, defaultSearchLimit)
	if err != nil {
		return nil, err
	}
	if files != nil {
		result.Files = files
	}
	if folders != nil {
		result.Folders = folders
	}
	return result, nil
}

// Recent returns the owner's non-deleted files ordered by updatedAt
// descending, id ascending on ties.
func (s *SearchService) Recent(ctx context.Context, owner primitive.ObjectID, limit int) ([]models.File, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	files, err := s.nodes.RecentFiles(ctx, owner, limit)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []models.File{}
	}
	return files, nil
}
