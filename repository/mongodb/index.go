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

func (s *Store) Star(ctx context.Context, account primitive.ObjectID, resourceType string, resourceID primitive.ObjectID) (*models.StarEntry, error) {
	var entry models.StarEntry
	err := s.starCollection.FindOne(ctx, bson.M{
		"account_id":    account,
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch star entry: %w", err)
	}
	return &entry, nil
}

func (s *Store) CreateStar(ctx context.Context, entry *models.StarEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, err := s.starCollection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert star entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteStar(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.starCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete star entry: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) StarsByAccount(ctx context.Context, account primitive.ObjectID) ([]models.StarEntry, error) {
	cursor, err := s.starCollection.Find(ctx, bson.M{"account_id": account},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list star entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.StarEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode star entries: %w", err)
	}
	return entries, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID.IsZero() {
		tx.ID = primitive.NewObjectID()
	}
	if _, err := s.txCollection.InsertOne(ctx, tx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *Store) Transaction(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.txCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&tx)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction: %w", err)
	}
	return &tx, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	result, err := s.txCollection.ReplaceOne(ctx, bson.M{"_id": tx.ID}, tx)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) TransactionsByAccount(ctx context.Context, account primitive.ObjectID) ([]models.Transaction, error) {
	cursor, err := s.txCollection.Find(ctx, bson.M{"account_id": account},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	txs := []models.Transaction{}
	if err = cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txs, nil
}

func (s *Store) CreateShare(ctx context.Context, grant *models.ShareGrant) error {
	if grant.ID.IsZero() {
		grant.ID = primitive.NewObjectID()
	}
	if _, err := s.shareCollection.InsertOne(ctx, grant); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert share grant: %w", err)
	}
	return nil
}

func (s *Store) SharesByResource(ctx context.Context, resourceType string, resourceID primitive.ObjectID) ([]models.ShareGrant, error) {
	cursor, err := s.shareCollection.Find(ctx, bson.M{
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list share grants: %w", err)
	}
	defer cursor.Close(ctx)

	var grants []models.ShareGrant
	if err = cursor.All(ctx, &grants); err != nil {
		return nil, fmt.Errorf("failed to decode share grants: %w", err)
	}
	return grants, nil
}
