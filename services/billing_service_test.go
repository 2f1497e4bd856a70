package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
)

func TestBillingInitiate(t *testing.T) {
	env := newTestEnv(t)

	tx, err := env.billing.Initiate(context.Background(), env.owner, "pro")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPending, tx.Status)
	assert.Equal(t, "Pro", tx.PlanName)
	assert.Equal(t, int64(1000), tx.AmountCents)
	assert.Equal(t, 1024*gigabyte, tx.StorageAdded)
}

func TestBillingInitiateUnknownPlan(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.billing.Initiate(context.Background(), env.owner, "platinum")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBillingConfirmRaisesQuotaLimit(t *testing.T) {
	env := newTestEnvWithLimit(t, 1000)
	ctx := context.Background()

	tx, err := env.billing.Initiate(ctx, env.owner, "basic")
	require.NoError(t, err)

	confirmed, err := env.billing.Confirm(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionSuccess, confirmed.Status)

	ledger, err := env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, 1000+100*gigabyte, ledger.Limit)
}

func TestBillingConfirmIsExactlyOnce(t *testing.T) {
	env := newTestEnvWithLimit(t, 1000)
	ctx := context.Background()

	tx, err := env.billing.Initiate(ctx, env.owner, "basic")
	require.NoError(t, err)

	_, err = env.billing.Confirm(ctx, tx.ID)
	require.NoError(t, err)
	_, err = env.billing.Confirm(ctx, tx.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	// The second attempt must not raise the limit again.
	ledger, err := env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, 1000+100*gigabyte, ledger.Limit)
}

func TestBillingFailLeavesQuotaUntouched(t *testing.T) {
	env := newTestEnvWithLimit(t, 1000)
	ctx := context.Background()

	tx, err := env.billing.Initiate(ctx, env.owner, "ultimate")
	require.NoError(t, err)

	failed, err := env.billing.Fail(ctx, tx.ID, "card declined")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionFailed, failed.Status)
	assert.Equal(t, "card declined", failed.FailReason)

	ledger, err := env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), ledger.Limit)

	// A failed transaction is terminal.
	_, err = env.billing.Confirm(ctx, tx.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = env.billing.Fail(ctx, tx.ID, "again")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestBillingConfirmMissingTransaction(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.billing.Confirm(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBillingHistoryNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.billing.Initiate(ctx, env.owner, "basic")
	require.NoError(t, err)
	second, err := env.billing.Initiate(ctx, env.owner, "pro")
	require.NoError(t, err)

	// Separate the creation instants so the ordering is deterministic.
	tx, err := env.store.Transaction(ctx, second.ID)
	require.NoError(t, err)
	tx.CreatedAt = first.CreatedAt.Add(time.Minute)
	require.NoError(t, env.store.UpdateTransaction(ctx, tx))

	history, err := env.billing.History(ctx, env.owner)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}
