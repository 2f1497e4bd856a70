// Package mongodb implements repository.Store on top of MongoDB
// collections, matching the memory implementation's semantics.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nimbusdrive/models"
	"nimbusdrive/repository"
)

type Store struct {
	folderCollection *mongo.Collection
	fileCollection   *mongo.Collection
	ledgerCollection *mongo.Collection
	starCollection   *mongo.Collection
	txCollection     *mongo.Collection
	shareCollection  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		folderCollection: db.Collection("folders"),
		fileCollection:   db.Collection("files"),
		ledgerCollection: db.Collection("quota_ledgers"),
		starCollection:   db.Collection("stars"),
		txCollection:     db.Collection("transactions"),
		shareCollection:  db.Collection("shares"),
	}
}

var _ repository.Store = (*Store)(nil)

// WithTransaction runs fn inside a MongoDB multi-document transaction. The
// writes fn issues through the session context commit together or roll back
// together. Requires the server to run as a replica set.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.folderCollection.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// EnsureIndexes creates the indexes the query paths rely on. Safe to call
// on every startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.folderCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "parent_id", Value: 1}, {Key: "is_deleted", Value: 1}}},
			{Keys: bson.D{{Key: "trash_root", Value: 1}, {Key: "deleted_at", Value: 1}}},
		},
		s.fileCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "parent_id", Value: 1}, {Key: "is_deleted", Value: 1}}},
			{Keys: bson.D{{Key: "trash_root", Value: 1}, {Key: "deleted_at", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
		s.ledgerCollection: {
			{Keys: bson.D{{Key: "account_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.starCollection: {
			{
				Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "resource_type", Value: 1}, {Key: "resource_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		s.txCollection: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for collection, specs := range indexes {
		if _, err := collection.Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection.Name(), err)
		}
	}
	return nil
}

func (s *Store) CreateFolder(ctx context.Context, folder *models.Folder) error {
	if folder.ID.IsZero() {
		folder.ID = primitive.NewObjectID()
	}
	if _, err := s.folderCollection.InsertOne(ctx, folder); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert folder: %w", err)
	}
	return nil
}

func (s *Store) CreateFile(ctx context.Context, file *models.File) error {
	if file.ID.IsZero() {
		file.ID = primitive.NewObjectID()
	}
	if _, err := s.fileCollection.InsertOne(ctx, file); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert file: %w", err)
	}
	return nil
}

func (s *Store) Folder(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	err := s.folderCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&folder)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch folder: %w", err)
	}
	return &folder, nil
}

func (s *Store) File(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var file models.File
	err := s.fileCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	return &file, nil
}

func (s *Store) UpdateFolder(ctx context.Context, folder *models.Folder) error {
	result, err := s.folderCollection.ReplaceOne(ctx, bson.M{"_id": folder.ID}, folder)
	if err != nil {
		return fmt.Errorf("failed to update folder: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateFile(ctx context.Context, file *models.File) error {
	result, err := s.fileCollection.ReplaceOne(ctx, bson.M{"_id": file.ID}, file)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteFolder(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.folderCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteFile(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.fileCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
