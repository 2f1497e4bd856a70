package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
)

func TestShareGrantsTokenForLiveResource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shares := NewGrantShareService(env.store, env.store)

	id := env.addFile(t, "doc.txt", 10, nil)
	grant, err := shares.Share(ctx, env.owner, models.ResourceFile, id, "Friend@Example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	assert.Equal(t, "friend@example.com", grant.Principal)
	assert.Equal(t, env.owner, grant.GrantedBy)

	stored, err := env.store.SharesByResource(ctx, models.ResourceFile, id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, grant.Token, stored[0].Token)
}

func TestShareRejectsInvalidPrincipal(t *testing.T) {
	env := newTestEnv(t)
	shares := NewGrantShareService(env.store, env.store)

	id := env.addFile(t, "doc.txt", 10, nil)
	_, err := shares.Share(context.Background(), env.owner, models.ResourceFile, id, "not-an-email")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestShareRejectsTrashedResource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shares := NewGrantShareService(env.store, env.store)

	id := env.addFile(t, "doc.txt", 10, nil)
	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, id))

	_, err := shares.Share(ctx, env.owner, models.ResourceFile, id, "a@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShareRejectsForeignResource(t *testing.T) {
	env := newTestEnv(t)
	shares := NewGrantShareService(env.store, env.store)

	id := env.addFolder(t, "shared", nil)
	_, err := shares.Share(context.Background(), primitive.NewObjectID(), models.ResourceFolder, id, "a@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
