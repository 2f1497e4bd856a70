package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"nimbusdrive/models"
	"nimbusdrive/repository"
)

// maxLedgerRetries bounds the optimistic retry loop. Reservation is cheap
// integer arithmetic, so a handful of retries absorbs realistic contention.
const maxLedgerRetries = 3

// QuotaService is the per-account storage ledger. Reserve and Release use
// optimistic versioning: concurrent writers against the same account retry
// on version mismatch instead of losing updates.
type QuotaService struct {
	ledgers      repository.LedgerStore
	defaultLimit int64
	logger       *zap.SugaredLogger
}

func NewQuotaService(ledgers repository.LedgerStore, defaultLimit int64, logger *zap.SugaredLogger) *QuotaService {
	return &QuotaService{
		ledgers:      ledgers,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// Usage returns the account's ledger, creating it at the default limit on
// first touch.
func (s *QuotaService) Usage(ctx context.Context, account primitive.ObjectID) (*models.QuotaLedger, error) {
	return s.ledger(ctx, account)
}

// Reserve charges delta bytes against the account. Fails with
// ErrQuotaExceeded when used+delta would pass the limit, leaving the ledger
// untouched, or with ErrConflict when retries are exhausted.
func (s *QuotaService) Reserve(ctx context.Context, account primitive.ObjectID, delta int64) (*models.QuotaLedger, error) {
	if delta < 0 {
		return nil, fmt.Errorf("%w: reserve delta must be non-negative", ErrValidation)
	}

	for attempt := 0; attempt < maxLedgerRetries; attempt++ {
		ledger, err := s.ledger(ctx, account)
		if err != nil {
			return nil, err
		}
		if ledger.Used+delta > ledger.Limit {
			return nil, fmt.Errorf("%w: used %d + %d exceeds limit %d", ErrQuotaExceeded, ledger.Used, delta, ledger.Limit)
		}
		ledger.Used += delta

		err = s.ledgers.UpdateLedger(ctx, ledger)
		if err == nil {
			return ledger, nil
		}
		if !errors.Is(err, repository.ErrVersionMismatch) {
			return nil, err
		}
		s.logger.Debugw("quota reserve retry", "account", account.Hex(), "attempt", attempt+1)
	}
	return nil, fmt.Errorf("%w: quota reserve for account %s", ErrConflict, account.Hex())
}

// Release returns delta bytes to the account. Usage never drops below zero;
// an over-release is clamped and logged rather than corrupting the ledger.
func (s *QuotaService) Release(ctx context.Context, account primitive.ObjectID, delta int64) error {
	if delta < 0 {
		return fmt.Errorf("%w: release delta must be non-negative", ErrValidation)
	}

	for attempt := 0; attempt < maxLedgerRetries; attempt++ {
		ledger, err := s.ledger(ctx, account)
		if err != nil {
			return err
		}
		if delta > ledger.Used {
			s.logger.Warnw("quota release clamped to zero",
				"account", account.Hex(), "used", ledger.Used, "delta", delta)
			ledger.Used = 0
		} else {
			ledger.Used -= delta
		}

		err = s.ledgers.UpdateLedger(ctx, ledger)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionMismatch) {
			return err
		}
	}
	return fmt.Errorf("%w: quota release for account %s", ErrConflict, account.Hex())
}

// IncreaseLimit raises the account's plan limit, e.g. after a confirmed
// storage purchase.
func (s *QuotaService) IncreaseLimit(ctx context.Context, account primitive.ObjectID, delta int64) error {
	if delta <= 0 {
		return fmt.Errorf("%w: limit increase must be positive", ErrValidation)
	}

	for attempt := 0; attempt < maxLedgerRetries; attempt++ {
		ledger, err := s.ledger(ctx, account)
		if err != nil {
			return err
		}
		ledger.Limit += delta

		err = s.ledgers.UpdateLedger(ctx, ledger)
		if err == nil {
			s.logger.Infow("quota limit raised",
				"account", account.Hex(), "limit", ledger.Limit)
			return nil
		}
		if !errors.Is(err, repository.ErrVersionMismatch) {
			return err
		}
	}
	return fmt.Errorf("%w: quota limit increase for account %s", ErrConflict, account.Hex())
}

func (s *QuotaService) ledger(ctx context.Context, account primitive.ObjectID) (*models.QuotaLedger, error) {
	ledger, err := s.ledgers.Ledger(ctx, account)
	if err == nil {
		return ledger, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	fresh := &models.QuotaLedger{AccountID: account, Limit: s.defaultLimit}
	if err := s.ledgers.CreateLedger(ctx, fresh); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the creation race; the other writer's ledger wins.
			return s.ledgers.Ledger(ctx, account)
		}
		return nil, err
	}
	return fresh, nil
}
