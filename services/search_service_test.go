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

func TestSearchMatchesCaseInsensitiveSubstrings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addFile(t, "Budget2024.xlsx", 10, nil)
	env.addFile(t, "vacation.jpg", 10, nil)
	env.addFolder(t, "budgets", nil)
	env.addFolder(t, "Photos", nil)

	result, err := env.search.Search(ctx, env.owner, "budget")
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "Budget2024.xlsx", result.Files[0].Name)
	require.Len(t, result.Folders, 1)
	assert.Equal(t, "budgets", result.Folders[0].Name)
}

func TestSearchEmptyQueryMatchesNothing(t *testing.T) {
	env := newTestEnv(t)

	env.addFile(t, "doc.txt", 10, nil)
	result, err := env.search.Search(context.Background(), env.owner, "   ")
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.Empty(t, result.Folders)
}

func TestSearchExcludesTrashed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	keep := env.addFile(t, "report-keep.pdf", 10, nil)
	gone := env.addFile(t, "report-gone.pdf", 10, nil)
	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, gone))

	result, err := env.search.Search(ctx, env.owner, "report")
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, keep, result.Files[0].ID)

	// Restore makes it searchable again.
	require.NoError(t, env.trash.Restore(ctx, env.owner, models.ResourceFile, gone))
	result, err = env.search.Search(ctx, env.owner, "report")
	require.NoError(t, err)
	assert.Len(t, result.Files, 2)
}

func TestSearchExcludesProvisionalUploads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.files.RequestUpload(ctx, env.owner, "pending.txt", 10, nil)
	require.NoError(t, err)

	result, err := env.search.Search(ctx, env.owner, "pending")
	require.NoError(t, err)
	assert.Empty(t, result.Files)
}

func TestRecentOrdersByLastModification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.addFile(t, "first.txt", 10, nil)
	second := env.addFile(t, "second.txt", 10, nil)
	third := env.addFile(t, "third.txt", 10, nil)

	// Spread the timestamps out explicitly; the wall clock is too coarse to
	// order three back-to-back writes.
	base := time.Now().UTC()
	for i, id := range []primitive.ObjectID{first, second, third} {
		file, err := env.store.File(ctx, id)
		require.NoError(t, err)
		file.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, env.store.UpdateFile(ctx, file))
	}

	files, err := env.search.Recent(ctx, env.owner, 10)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, third, files[0].ID)
	assert.Equal(t, second, files[1].ID)
	assert.Equal(t, first, files[2].ID)
}

func TestRecentHonorsLimitAndSkipsTrashed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var last primitive.ObjectID
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		last = env.addFile(t, name, 10, nil)
	}
	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, last))

	files, err := env.search.Recent(ctx, env.owner, 1)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.NotEqual(t, last, files[0].ID)
}
