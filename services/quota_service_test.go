package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"nimbusdrive/models"
	"nimbusdrive/repository"
	"nimbusdrive/repository/memory"
)

func TestQuotaReserveAndRelease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ledger, err := env.quota.Reserve(ctx, env.owner, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), ledger.Used)
	assert.Equal(t, testQuotaLimit, ledger.Limit)

	require.NoError(t, env.quota.Release(ctx, env.owner, 40))
	ledger, err = env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(60), ledger.Used)
}

func TestQuotaReserveExceedingLimitLeavesLedgerUntouched(t *testing.T) {
	env := newTestEnvWithLimit(t, 1<<30)
	ctx := context.Background()

	mib := int64(1 << 20)
	_, err := env.quota.Reserve(ctx, env.owner, 600*mib)
	require.NoError(t, err)

	_, err = env.quota.Reserve(ctx, env.owner, 500*mib)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	ledger, err := env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, 600*mib, ledger.Used, "failed reservation must not charge the ledger")

	// Releasing frees the headroom for the same reservation to succeed.
	require.NoError(t, env.quota.Release(ctx, env.owner, 600*mib))
	_, err = env.quota.Reserve(ctx, env.owner, 500*mib)
	require.NoError(t, err)
}

func TestQuotaReserveExactLimit(t *testing.T) {
	env := newTestEnvWithLimit(t, 1000)
	ctx := context.Background()

	ledger, err := env.quota.Reserve(ctx, env.owner, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), ledger.Used)

	_, err = env.quota.Reserve(ctx, env.owner, 1)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestQuotaReleaseClampsAtZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.quota.Reserve(ctx, env.owner, 50)
	require.NoError(t, err)

	require.NoError(t, env.quota.Release(ctx, env.owner, 200))
	ledger, err := env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ledger.Used)
}

func TestQuotaRejectsNegativeDeltas(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.quota.Reserve(ctx, env.owner, -1)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, env.quota.Release(ctx, env.owner, -1), ErrValidation)
	assert.ErrorIs(t, env.quota.IncreaseLimit(ctx, env.owner, 0), ErrValidation)
}

func TestQuotaIncreaseLimit(t *testing.T) {
	env := newTestEnvWithLimit(t, 1000)
	ctx := context.Background()

	require.NoError(t, env.quota.IncreaseLimit(ctx, env.owner, 500))
	ledger, err := env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), ledger.Limit)

	_, err = env.quota.Reserve(ctx, env.owner, 1400)
	assert.NoError(t, err)
}

// conflictingLedgerStore injects version mismatches ahead of a real store to
// exercise the optimistic retry loop deterministically.
type conflictingLedgerStore struct {
	repository.LedgerStore
	conflicts int
}

func (s *conflictingLedgerStore) UpdateLedger(ctx context.Context, ledger *models.QuotaLedger) error {
	if s.conflicts > 0 {
		s.conflicts--
		return repository.ErrVersionMismatch
	}
	return s.LedgerStore.UpdateLedger(ctx, ledger)
}

func TestQuotaReserveRetriesOnVersionMismatch(t *testing.T) {
	inner := memory.New()
	store := &conflictingLedgerStore{LedgerStore: inner, conflicts: maxLedgerRetries - 1}
	quota := NewQuotaService(store, 1000, zap.NewNop().Sugar())
	account := primitive.NewObjectID()

	ledger, err := quota.Reserve(context.Background(), account, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), ledger.Used)
}

func TestQuotaReserveFailsAfterRetriesExhausted(t *testing.T) {
	inner := memory.New()
	store := &conflictingLedgerStore{LedgerStore: inner, conflicts: maxLedgerRetries}
	quota := NewQuotaService(store, 1000, zap.NewNop().Sugar())
	account := primitive.NewObjectID()

	_, err := quota.Reserve(context.Background(), account, 10)
	require.ErrorIs(t, err, ErrConflict)

	ledger, err := inner.Ledger(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ledger.Used, "exhausted retries must not charge the ledger")
}

func TestQuotaStaleWriteRejectedByStore(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	account := primitive.NewObjectID()

	require.NoError(t, store.CreateLedger(ctx, &models.QuotaLedger{AccountID: account, Limit: 1000}))

	first, err := store.Ledger(ctx, account)
	require.NoError(t, err)
	second, err := store.Ledger(ctx, account)
	require.NoError(t, err)

	first.Used = 100
	require.NoError(t, store.UpdateLedger(ctx, first))

	second.Used = 200
	err = store.UpdateLedger(ctx, second)
	assert.ErrorIs(t, err, repository.ErrVersionMismatch)

	current, err := store.Ledger(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, int64(100), current.Used, "stale writer must not clobber the committed value")
}
