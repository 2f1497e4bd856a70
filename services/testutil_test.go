package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"nimbusdrive/repository/memory"
)

const testQuotaLimit = int64(1 << 30) // 1 GiB

// stubBlobStore satisfies BlobStore without touching the network. Uploaded
// bytes and deleted keys are recorded so tests can assert on them.
type stubBlobStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
	deleted []string
	fail    bool
}

func (s *stubBlobStore) Upload(_ context.Context, key string, r io.Reader) error {
	if s.fail {
		return fmt.Errorf("%w: blob storage down", ErrDependencyUnavailable)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploads == nil {
		s.uploads = make(map[string][]byte)
	}
	s.uploads[key] = data
	return nil
}

func (s *stubBlobStore) DownloadURL(_ context.Context, key string) (string, error) {
	if s.fail {
		return "", fmt.Errorf("%w: blob storage down", ErrDependencyUnavailable)
	}
	return "https://blobs.test/download/" + key, nil
}

func (s *stubBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *stubBlobStore) uploadedData(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.uploads[key]
	return data, ok
}

func (s *stubBlobStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

type testEnv struct {
	store   *memory.Store
	blobs   *stubBlobStore
	quota   *QuotaService
	folders *FolderService
	files   *FileService
	trash   *TrashService
	stars   *StarService
	search  *SearchService
	billing *BillingService
	owner   primitive.ObjectID
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithLimit(t, testQuotaLimit)
}

func newTestEnvWithLimit(t *testing.T, quotaLimit int64) *testEnv {
	t.Helper()

	store := memory.New()
	blobs := &stubBlobStore{}
	logger := zap.NewNop().Sugar()
	locks := NewTreeLocker()

	quota := NewQuotaService(store, quotaLimit, logger)
	folders := NewFolderService(store, locks, logger)
	files := NewFileService(store, quota, folders, blobs, locks, testQuotaLimit, logger)
	trash := NewTrashService(store, store, quota, folders, blobs, locks, logger)
	stars := NewStarService(store, store, locks, logger)
	search := NewSearchService(store)
	billing := NewBillingService(store, quota, logger)

	return &testEnv{
		store:   store,
		blobs:   blobs,
		quota:   quota,
		folders: folders,
		files:   files,
		trash:   trash,
		stars:   stars,
		search:  search,
		billing: billing,
		owner:   primitive.NewObjectID(),
	}
}

// addFile uploads and confirms a file in one step.
func (e *testEnv) addFile(t *testing.T, name string, size int64, parentID *primitive.ObjectID) primitive.ObjectID {
	t.Helper()
	ctx := context.Background()

	ticket, err := e.files.RequestUpload(ctx, e.owner, name, size, parentID)
	if err != nil {
		t.Fatalf("RequestUpload(%s): %v", name, err)
	}
	if _, err := e.files.ConfirmUpload(ctx, e.owner, ticket.FileID); err != nil {
		t.Fatalf("ConfirmUpload(%s): %v", name, err)
	}
	return ticket.FileID
}

// addFolder creates a folder and fails the test on error.
func (e *testEnv) addFolder(t *testing.T, name string, parentID *primitive.ObjectID) primitive.ObjectID {
	t.Helper()

	folder, err := e.folders.Create(context.Background(), e.owner, name, parentID)
	if err != nil {
		t.Fatalf("Create folder(%s): %v", name, err)
	}
	return folder.ID
}
