package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"nimbusdrive/models"
	"nimbusdrive/repository"
)

func (s *Store) Ledger(ctx context.Context, account primitive.ObjectID) (*models.QuotaLedger, error) {
	var ledger models.QuotaLedger
	err := s.ledgerCollection.FindOne(ctx, bson.M{"account_id": account}).Decode(&ledger)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch quota ledger: %w", err)
	}
	return &ledger, nil
}

func (s *Store) CreateLedger(ctx context.Context, ledger *models.QuotaLedger) error {
	if _, err := s.ledgerCollection.InsertOne(ctx, ledger); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert quota ledger: %w", err)
	}
	return nil
}

// UpdateLedger is the optimistic write: the filter matches the version the
// caller read, so a concurrent writer makes MatchedCount zero instead of
// silently overwriting.
func (s *Store) UpdateLedger(ctx context.Context, ledger *models.QuotaLedger) error {
	result, err := s.ledgerCollection.UpdateOne(ctx,
		bson.M{"account_id": ledger.AccountID, "version": ledger.Version},
		bson.M{
			"$set": bson.M{"used": ledger.Used, "limit": ledger.Limit},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return fmt.Errorf("failed to update quota ledger: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := s.Ledger(ctx, ledger.AccountID); errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return repository.ErrVersionMismatch
	}
	ledger.Version++
	return nil
}
