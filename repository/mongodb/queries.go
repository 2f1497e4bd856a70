package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nimbusdrive/models"
)

func parentFilter(owner primitive.ObjectID, parent *primitive.ObjectID, includeDeleted bool) bson.M {
	filter := bson.M{"owner_id": owner}
	if parent != nil {
		filter["parent_id"] = *parent
	} else {
		filter["parent_id"] = nil
	}
	if !includeDeleted {
		filter["is_deleted"] = false
	}
	return filter
}

func (s *Store) ChildFolders(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, includeDeleted bool) ([]models.Folder, error) {
	cursor, err := s.folderCollection.Find(ctx, parentFilter(owner, parent, includeDeleted),
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err = cursor.All(ctx, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode folders: %w", err)
	}
	return folders, nil
}

func (s *Store) ChildFiles(ctx context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, includeDeleted bool) ([]models.File, error) {
	filter := parentFilter(owner, parent, includeDeleted)
	filter["status"] = models.FileStatusActive

	cursor, err := s.fileCollection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err = cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}
	return files, nil
}

func (s *Store) TrashRoots(ctx context.Context, owner primitive.ObjectID) (*models.TrashContents, error) {
	filter := bson.M{"owner_id": owner, "trash_root": true}
	return s.trashContents(ctx, filter)
}

func (s *Store) ExpiredTrashRoots(ctx context.Context, cutoff time.Time, limit int) (*models.TrashContents, error) {
	filter := bson.M{
		"trash_root": true,
		"deleted_at": bson.M{"$ne": nil, "$lte": cutoff},
	}
	return s.trashContents(ctx, filter, limit)
}

func (s *Store) trashContents(ctx context.Context, filter bson.M, limit ...int) (*models.TrashContents, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "deleted_at", Value: -1}, {Key: "_id", Value: 1}})
	if len(limit) > 0 && limit[0] > 0 {
		findOptions.SetLimit(int64(limit[0]))
	}

	fileFilter := bson.M{"status": models.FileStatusActive}
	for k, v := range filter {
		fileFilter[k] = v
	}
	fileCursor, err := s.fileCollection.Find(ctx, fileFilter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trashed files: %w", err)
	}
	defer fileCursor.Close(ctx)

	contents := &models.TrashContents{Files: []models.File{}, Folders: []models.Folder{}}
	if err = fileCursor.All(ctx, &contents.Files); err != nil {
		return nil, fmt.Errorf("failed to decode trashed files: %w", err)
	}

	folderCursor, err := s.folderCollection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trashed folders: %w", err)
	}
	defer folderCursor.Close(ctx)

	if err = folderCursor.All(ctx, &contents.Folders); err != nil {
		return nil, fmt.Errorf("failed to decode trashed folders: %w", err)
	}
	return contents, nil
}

func (s *Store) SearchFolders(ctx context.Context, owner primitive.ObjectID, query string, limit int) ([]models.Folder, error) {
	filter := bson.M{
		"owner_id":   owner,
		"is_deleted": false,
		"name":       bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"},
	}

	cursor, err := s.folderCollection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to search folders: %w", err)
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err = cursor.All(ctx, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode folders: %w", err)
	}
	return folders, nil
}

func (s *Store) SearchFiles(ctx context.Context, owner primitive.ObjectID, query string, limit int) ([]models.File, error) {
	filter := bson.M{
		"owner_id":   owner,
		"is_deleted": false,
		"status":     models.FileStatusActive,
		"name":       bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"},
	}

	cursor, err := s.fileCollection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err = cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}
	return files, nil
}

func (s *Store) RecentFiles(ctx context.Context, owner primitive.ObjectID, limit int) ([]models.File, error) {
	filter := bson.M{
		"owner_id":   owner,
		"is_deleted": false,
		"status":     models.FileStatusActive,
	}

	cursor, err := s.fileCollection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent files: %w", err)
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err = cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}
	return files, nil
}
