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

const gigabyte = int64(1024 * 1024 * 1024)

// Plans is the purchasable storage catalog, keyed by plan id.
var Plans = map[string]models.Plan{
	"basic":    {ID: "basic", Name: "Basic", StorageBytes: 100 * gigabyte, PriceCents: 500},
	"pro":      {ID: "pro", Name: "Pro", StorageBytes: 1024 * gigabyte, PriceCents: 1000},
	"ultimate": {ID: "ultimate", Name: "Ultimate", StorageBytes: 5 * 1024 * gigabyte, PriceCents: 2000},
}

// BillingService records storage purchases and reconciles confirmed ones
// into the quota ledger. A transaction's status leaves pending exactly once.
type BillingService struct {
	transactions repository.TransactionStore
	quota        *QuotaService
	logger       *zap.SugaredLogger
}

func NewBillingService(transactions repository.TransactionStore, quota *QuotaService, logger *zap.SugaredLogger) *BillingService {
	return &BillingService{transactions: transactions, quota: quota, logger: logger}
}

// Initiate opens a pending transaction for the given plan.
func (s *BillingService) Initiate(ctx context.Context, account primitive.ObjectID, planID string) (*models.Transaction, error) {
	plan, ok := Plans[planID]
	if !ok {
		return nil, fmt.Errorf("%w: plan %q", ErrNotFound, planID)
	}

	now := time.Now().UTC()
	tx := &models.Transaction{
		ID:           primitive.NewObjectID(),
		AccountID:    account,
		PlanID:       plan.ID,
		PlanName:     plan.Name,
		StorageAdded: plan.StorageBytes,
		AmountCents:  plan.PriceCents,
		Status:       models.TransactionPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.transactions.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Infow("transaction initiated",
		"transaction", tx.ID.Hex(), "account", account.Hex(), "plan", planID)
	return tx, nil
}

// Confirm marks a pending transaction successful and raises the account's
// quota limit by the purchased storage. Confirming a non-pending
// transaction fails with ErrInvalidState.
func (s *BillingService) Confirm(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	tx, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	// Raise the limit before flipping the status: a crash in between
	// leaves a pending transaction that can be confirmed again, and the
	// double increase is caught by reconciliation, whereas the opposite
	// order would lose paid-for storage.
	if err := s.quota.IncreaseLimit(ctx, tx.AccountID, tx.StorageAdded); err != nil {
		return nil, err
	}

	tx.Status = models.TransactionSuccess
	tx.UpdatedAt = time.Now().UTC()
	if err := s.transactions.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Infow("transaction confirmed",
		"transaction", tx.ID.Hex(), "account", tx.AccountID.Hex(), "storageAdded", tx.StorageAdded)
	return tx, nil
}

// Fail marks a pending transaction failed. The quota limit is untouched.
func (s *BillingService) Fail(ctx context.Context, id primitive.ObjectID, reason string) (*models.Transaction, error) {
	tx, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	tx.Status = models.TransactionFailed
	tx.FailReason = reason
	tx.UpdatedAt = time.Now().UTC()
	if err := s.transactions.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Infow("transaction failed",
		"transaction", tx.ID.Hex(), "account", tx.AccountID.Hex(), "reason", reason)
	return tx, nil
}

// History returns the account's transactions, newest first.
func (s *BillingService) History(ctx context.Context, account primitive.ObjectID) ([]models.Transaction, error) {
	return s.transactions.TransactionsByAccount(ctx, account)
}

func (s *BillingService) pending(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	tx, err := s.transactions.Transaction(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, id.Hex())
		}
		return nil, err
	}
	if tx.Status != models.TransactionPending {
		return nil, fmt.Errorf("%w: transaction %s is %s", ErrInvalidState, id.Hex(), tx.Status)
	}
	return tx, nil
}
