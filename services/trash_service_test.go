package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"nimbusdrive/models"
	"nimbusdrive/repository/memory"
)

func TestTrashFileHidesItAndKeepsQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.addFile(t, "doc.txt", 100, nil)
	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, id))

	contents, err := env.folders.Contents(ctx, env.owner, nil)
	require.NoError(t, err)
	assert.Empty(t, contents.Files)

	// Trash keeps the bytes reserved until purge.
	ledger, err := env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(100), ledger.Used)

	trash, err := env.trash.List(ctx, env.owner)
	require.NoError(t, err)
	require.Len(t, trash.Files, 1)
	assert.Equal(t, id, trash.Files[0].ID)
}

func TestTrashFolderCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	top := env.addFolder(t, "top", nil)
	sub := env.addFolder(t, "sub", &top)
	env.addFile(t, "a.txt", 10, &top)
	deepFile := env.addFile(t, "b.txt", 20, &sub)

	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFolder, top))

	// Every descendant is gone from listings.
	rootContents, err := env.folders.Contents(ctx, env.owner, nil)
	require.NoError(t, err)
	assert.Empty(t, rootContents.Folders)

	_, err = env.folders.Contents(ctx, env.owner, &sub)
	assert.ErrorIs(t, err, ErrNotFound)

	// Only the explicitly trashed folder shows in the trash view.
	trash, err := env.trash.List(ctx, env.owner)
	require.NoError(t, err)
	assert.Empty(t, trash.Files)
	require.Len(t, trash.Folders, 1)
	assert.Equal(t, top, trash.Folders[0].ID)

	file, err := env.store.File(ctx, deepFile)
	require.NoError(t, err)
	assert.True(t, file.IsDeleted)
}

func TestTrashAlreadyTrashedIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.addFile(t, "doc.txt", 10, nil)
	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, id))
	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, id))

	trash, err := env.trash.List(ctx, env.owner)
	require.NoError(t, err)
	assert.Len(t, trash.Files, 1)
}

func TestIndividuallyTrashedFileKeepsItsOwnEntryThroughCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder := env.addFolder(t, "folder", nil)
	fileID := env.addFile(t, "doc.txt", 10, &folder)

	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, fileID))
	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFolder, folder))

	trash, err := env.trash.List(ctx, env.owner)
	require.NoError(t, err)
	assert.Len(t, trash.Files, 1, "the file's own trash entry survives the folder cascade")
	assert.Len(t, trash.Folders, 1)

	// Restoring the folder does not resurrect the individually trashed file.
	require.NoError(t, env.trash.Restore(ctx, env.owner, models.ResourceFolder, folder))
	contents, err := env.folders.Contents(ctx, env.owner, &folder)
	require.NoError(t, err)
	assert.Empty(t, contents.Files)

	trash, err = env.trash.List(ctx, env.owner)
	require.NoError(t, err)
	assert.Len(t, trash.Files, 1)
}

func TestRestoreFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder := env.addFolder(t, "folder", nil)
	id := env.addFile(t, "doc.txt", 10, &folder)

	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, id))
	require.NoError(t, env.trash.Restore(ctx, env.owner, models.ResourceFile, id))

	contents, err := env.folders.Contents(ctx, env.owner, &folder)
	require.NoError(t, err)
	require.Len(t, contents.Files, 1)
	assert.Equal(t, 1, contents.Folder.ItemCount)

	trash, err := env.trash.List(ctx, env.owner)
	require.NoError(t, err)
	assert.Empty(t, trash.Files)
}

func TestRestoreNotTrashedFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.addFile(t, "doc.txt", 10, nil)
	err := env.trash.Restore(ctx, env.owner, models.ResourceFile, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeFileReleasesQuotaExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.addFile(t, "doc.txt", 100, nil)
	before, err := env.store.File(ctx, id)
	require.NoError(t, err)

	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, id))
	require.NoError(t, env.trash.Purge(ctx, env.owner, models.ResourceFile, id))

	ledger, err := env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ledger.Used)
	assert.Contains(t, env.blobs.deletedKeys(), before.StorageKey)

	// Purging the same id again is a no-op, not a second release.
	require.NoError(t, env.trash.Purge(ctx, env.owner, models.ResourceFile, id))
	ledger, err = env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ledger.Used)
}

func TestPurgeNotTrashedFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.addFile(t, "doc.txt", 10, nil)
	err := env.trash.Purge(ctx, env.owner, models.ResourceFile, id)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPurgeFolderCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	top := env.addFolder(t, "top", nil)
	sub := env.addFolder(t, "sub", &top)
	env.addFile(t, "a.txt", 30, &top)
	env.addFile(t, "b.txt", 70, &sub)

	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFolder, top))
	require.NoError(t, env.trash.Purge(ctx, env.owner, models.ResourceFolder, top))

	ledger, err := env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ledger.Used)

	_, err = env.store.Folder(ctx, sub)
	assert.Error(t, err)
	assert.Len(t, env.blobs.deletedKeys(), 2)
}

func TestPurgeUnknownResourceType(t *testing.T) {
	env := newTestEnv(t)

	err := env.trash.Purge(context.Background(), env.owner, "blob", primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSweepExpiredPurgesOnlyPastRetention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	oldFile := env.addFile(t, "old.txt", 10, nil)
	freshFile := env.addFile(t, "fresh.txt", 20, nil)
	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, oldFile))
	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, freshFile))

	// Backdate the first file past the retention window.
	file, err := env.store.File(ctx, oldFile)
	require.NoError(t, err)
	expired := time.Now().UTC().Add(-models.TrashRetention - time.Hour)
	file.DeletedAt = &expired
	require.NoError(t, env.store.UpdateFile(ctx, file))

	purged, err := env.trash.SweepExpired(ctx, time.Now().UTC().Add(-models.TrashRetention))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	trash, err := env.trash.List(ctx, env.owner)
	require.NoError(t, err)
	require.Len(t, trash.Files, 1)
	assert.Equal(t, freshFile, trash.Files[0].ID)

	ledger, err := env.quota.Usage(ctx, env.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(20), ledger.Used)
}

func TestSweepExpiredStopsOnCancelledContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.addFile(t, "old.txt", 10, nil)
	require.NoError(t, env.trash.Trash(ctx, env.owner, models.ResourceFile, id))

	file, err := env.store.File(ctx, id)
	require.NoError(t, err)
	expired := time.Now().UTC().Add(-models.TrashRetention - time.Hour)
	file.DeletedAt = &expired
	require.NoError(t, env.store.UpdateFile(ctx, file))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = env.trash.SweepExpired(cancelled, time.Now().UTC())
	assert.ErrorIs(t, err, context.Canceled)

	// Nothing purged, so a later sweep picks the node up again.
	purged, err := env.trash.SweepExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
}

// txRecordingStore counts the transactions the trash service opens.
type txRecordingStore struct {
	*memory.Store
	calls int
}

func (s *txRecordingStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	return s.Store.WithTransaction(ctx, fn)
}

func TestTrashLifecycleRunsInsideTransactions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rec := &txRecordingStore{Store: store}
	logger := zap.NewNop().Sugar()
	locks := NewTreeLocker()

	quota := NewQuotaService(store, testQuotaLimit, logger)
	folders := NewFolderService(store, locks, logger)
	blobs := &stubBlobStore{}
	files := NewFileService(store, quota, folders, blobs, locks, testQuotaLimit, logger)
	trash := NewTrashService(store, rec, quota, folders, blobs, locks, logger)

	owner := primitive.NewObjectID()
	folder, err := folders.Create(ctx, owner, "projects", nil)
	require.NoError(t, err)
	ticket, err := files.RequestUpload(ctx, owner, "plan.txt", 10, &folder.ID)
	require.NoError(t, err)
	_, err = files.ConfirmUpload(ctx, owner, ticket.FileID)
	require.NoError(t, err)

	// The cascade, the restore and the purge each commit as one unit.
	require.NoError(t, trash.Trash(ctx, owner, models.ResourceFolder, folder.ID))
	assert.Equal(t, 1, rec.calls)

	require.NoError(t, trash.Restore(ctx, owner, models.ResourceFolder, folder.ID))
	assert.Equal(t, 2, rec.calls)

	require.NoError(t, trash.Trash(ctx, owner, models.ResourceFolder, folder.ID))
	require.NoError(t, trash.Purge(ctx, owner, models.ResourceFolder, folder.ID))
	assert.Equal(t, 4, rec.calls)

	contents, err := folders.Contents(ctx, owner, nil)
	require.NoError(t, err)
	assert.Empty(t, contents.Folders)
}
