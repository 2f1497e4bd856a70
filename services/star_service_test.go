package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
)

func TestStarToggleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.addFile(t, "doc.txt", 10, nil)

	starred, err := env.stars.Toggle(ctx, env.owner, models.ResourceFile, id)
	require.NoError(t, err)
	assert.True(t, starred)

	file, err := env.store.File(ctx, id)
	require.NoError(t, err)
	assert.True(t, file.Starred)

	items, err := env.stars.Starred(ctx, env.owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ResourceID)

	// Second toggle lands back in the original state.
	starred, err = env.stars.Toggle(ctx, env.owner, models.ResourceFile, id)
	require.NoError(t, err)
	assert.False(t, starred)

	file, err = env.store.File(ctx, id)
	require.NoError(t, err)
	assert.False(t, file.Starred)

	items, err = env.stars.Starred(ctx, env.owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStarFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.addFolder(t, "keepers", nil)
	starred, err := env.stars.Toggle(ctx, env.owner, models.ResourceFolder, id)
	require.NoError(t, err)
	assert.True(t, starred)

	folder, err := env.store.Folder(ctx, id)
	require.NoError(t, err)
	assert.True(t, folder.Starred)
}

func TestStarMissingResourceFails(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.stars.Toggle(context.Background(), env.owner, models.ResourceFile, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStarUnknownResourceTypeFails(t *testing.T) {
	env := newTestEnv(t)

	id := env.addFile(t, "doc.txt", 10, nil)
	_, err := env.stars.Toggle(context.Background(), env.owner, "bookmark", id)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStarredListSkipsTrashedResources(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	fileID := env.addFile(t, "doc.txt", 10, nil)
	folderID := env.addFolder(t, "keepers", nil)
	_, err := env.stars.Toggle(ctx, env.owner, models.ResourceFile, fileID)
	require.NoError(t, err)
	_, err = env.stars.Toggle(ctx, env.owner, models.ResourceFolder, folderID)
	require.NoError(t, err)

	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, fileID))

	items, err := env.stars.Starred(ctx, env.owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, folderID, items[0].ResourceID)

	// Restoring brings the star back without re-toggling.
	require.NoError(t, env.trash.Restore(ctx, env.owner, models.ResourceFile, fileID))
	items, err = env.stars.Starred(ctx, env.owner)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestStarIsolatedPerAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.addFile(t, "doc.txt", 10, nil)
	stranger := primitive.NewObjectID()

	_, err := env.stars.Toggle(ctx, stranger, models.ResourceFile, id)
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := env.stars.Starred(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, items)
}
