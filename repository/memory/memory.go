// Package memory is an in-process implementation of repository.Store. It
// backs the test suite and embedded deployments; the semantics mirror the
// mongodb implementation exactly.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
	"nimbusdrive/repository"
)

type Store struct {
	mu sync.RWMutex

	folders map[primitive.ObjectID]*models.Folder
	files   map[primitive.ObjectID]*models.File
	ledgers map[primitive.ObjectID]*models.QuotaLedger
	stars   map[primitive.ObjectID]*models.StarEntry
	txs     map[primitive.ObjectID]*models.Transaction
	shares  map[primitive.ObjectID]*models.ShareGrant
}

func New() *Store {
	return &Store{
		folders: make(map[primitive.ObjectID]*models.Folder),
		files:   make(map[primitive.ObjectID]*models.File),
		ledgers: make(map[primitive.ObjectID]*models.QuotaLedger),
		stars:   make(map[primitive.ObjectID]*models.StarEntry),
		txs:     make(map[primitive.ObjectID]*models.Transaction),
		shares:  make(map[primitive.ObjectID]*models.ShareGrant),
	}
}

var _ repository.Store = (*Store)(nil)

// WithTransaction runs fn directly. The in-process store has no crash
// window between writes, and callers hold the per-owner tree lock for
// isolation, so a pass-through keeps the transactional contract.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ---- nodes ----

func (s *Store) CreateFolder(_ context.Context, folder *models.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if folder.ID.IsZero() {
		folder.ID = primitive.NewObjectID()
	}
	if _, ok := s.folders[folder.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *folder
	s.folders[folder.ID] = &cp
	return nil
}

func (s *Store) CreateFile(_ context.Context, file *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if file.ID.IsZero() {
		file.ID = primitive.NewObjectID()
	}
	if _, ok := s.files[file.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *file
	s.files[file.ID] = &cp
	return nil
}

func (s *Store) Folder(_ context.Context, id primitive.ObjectID) (*models.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folder, ok := s.folders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *folder
	return &cp, nil
}

func (s *Store) File(_ context.Context, id primitive.ObjectID) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *file
	return &cp, nil
}

func (s *Store) UpdateFolder(_ context.Context, folder *models.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[folder.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *folder
	s.folders[folder.ID] = &cp
	return nil
}

func (s *Store) UpdateFile(_ context.Context, file *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[file.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *file
	s.files[file.ID] = &cp
	return nil
}

func (s *Store) DeleteFolder(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.folders, id)
	return nil
}

func (s *Store) DeleteFile(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.files, id)
	return nil
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Store) ChildFolders(_ context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, includeDeleted bool) ([]models.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Folder
	for _, folder := range s.folders {
		if folder.OwnerID != owner || !sameParent(folder.ParentID, parent) {
			continue
		}
		if folder.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, *folder)
	}
	sortFoldersByName(out)
	return out, nil
}

func (s *Store) ChildFiles(_ context.Context, owner primitive.ObjectID, parent *primitive.ObjectID, includeDeleted bool) ([]models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.File
	for _, file := range s.files {
		if file.OwnerID != owner || !sameParent(file.ParentID, parent) {
			continue
		}
		if file.Status == models.FileStatusProvisional {
			continue
		}
		if file.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, *file)
	}
	sortFilesByName(out)
	return out, nil
}

func (s *Store) TrashRoots(_ context.Context, owner primitive.ObjectID) (*models.TrashContents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contents := &models.TrashContents{Files: []models.File{}, Folders: []models.Folder{}}
	for _, file := range s.files {
		if file.OwnerID == owner && file.TrashRoot && file.Status != models.FileStatusProvisional {
			contents.Files = append(contents.Files, *file)
		}
	}
	for _, folder := range s.folders {
		if folder.OwnerID == owner && folder.TrashRoot {
			contents.Folders = append(contents.Folders, *folder)
		}
	}
	sortTrash(contents)
	return contents, nil
}

func (s *Store) ExpiredTrashRoots(_ context.Context, cutoff time.Time, limit int) (*models.TrashContents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contents := &models.TrashContents{Files: []models.File{}, Folders: []models.Folder{}}
	for _, file := range s.files {
		if file.TrashRoot && file.DeletedAt != nil && !file.DeletedAt.After(cutoff) {
			contents.Files = append(contents.Files, *file)
		}
	}
	for _, folder := range s.folders {
		if folder.TrashRoot && folder.DeletedAt != nil && !folder.DeletedAt.After(cutoff) {
			contents.Folders = append(contents.Folders, *folder)
		}
	}
	sortTrash(contents)
	if limit > 0 {
		if len(contents.Files) > limit {
			contents.Files = contents.Files[:limit]
		}
		if len(contents.Folders) > limit {
			contents.Folders = contents.Folders[:limit]
		}
	}
	return contents, nil
}

func (s *Store) SearchFolders(_ context.Context, owner primitive.ObjectID, query string, limit int) ([]models.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var out []models.Folder
	for _, folder := range s.folders {
		if folder.OwnerID != owner || folder.IsDeleted {
			continue
		}
		if strings.Contains(strings.ToLower(folder.Name), needle) {
			out = append(out, *folder)
		}
	}
	sortFoldersByName(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SearchFiles(_ context.Context, owner primitive.ObjectID, query string, limit int) ([]models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var out []models.File
	for _, file := range s.files {
		if file.OwnerID != owner || file.IsDeleted || file.Status == models.FileStatusProvisional {
			continue
		}
		if strings.Contains(strings.ToLower(file.Name), needle) {
			out = append(out, *file)
		}
	}
	sortFilesByName(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) RecentFiles(_ context.Context, owner primitive.ObjectID, limit int) ([]models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.File
	for _, file := range s.files {
		if file.OwnerID != owner || file.IsDeleted || file.Status == models.FileStatusProvisional {
			continue
		}
		out = append(out, *file)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- quota ledgers ----

func (s *Store) Ledger(_ context.Context, account primitive.ObjectID) (*models.QuotaLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, ok := s.ledgers[account]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ledger
	return &cp, nil
}

func (s *Store) CreateLedger(_ context.Context, ledger *models.QuotaLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ledgers[ledger.AccountID]; ok {
		return repository.ErrDuplicate
	}
	cp := *ledger
	s.ledgers[ledger.AccountID] = &cp
	return nil
}

func (s *Store) UpdateLedger(_ context.Context, ledger *models.QuotaLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ledgers[ledger.AccountID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != ledger.Version {
		return repository.ErrVersionMismatch
	}
	cp := *ledger
	cp.Version++
	s.ledgers[ledger.AccountID] = &cp
	ledger.Version = cp.Version
	return nil
}

// ---- stars ----

func (s *Store) Star(_ context.Context, account primitive.ObjectID, resourceType string, resourceID primitive.ObjectID) (*models.StarEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.stars {
		if entry.AccountID == account && entry.ResourceType == resourceType && entry.ResourceID == resourceID {
			cp := *entry
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) CreateStar(_ context.Context, entry *models.StarEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.stars {
		if existing.AccountID == entry.AccountID && existing.ResourceType == entry.ResourceType && existing.ResourceID == entry.ResourceID {
			return repository.ErrDuplicate
		}
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	cp := *entry
	s.stars[entry.ID] = &cp
	return nil
}

func (s *Store) DeleteStar(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stars[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.stars, id)
	return nil
}

func (s *Store) StarsByAccount(_ context.Context, account primitive.ObjectID) ([]models.StarEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.StarEntry
	for _, entry := range s.stars {
		if entry.AccountID == account {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

// ---- billing transactions ----

func (s *Store) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID.IsZero() {
		tx.ID = primitive.NewObjectID()
	}
	if _, ok := s.txs[tx.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *tx
	s.txs[tx.ID] = &cp
	return nil
}

func (s *Store) Transaction(_ context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.txs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txs[tx.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *tx
	s.txs[tx.ID] = &cp
	return nil
}

func (s *Store) TransactionsByAccount(_ context.Context, account primitive.ObjectID) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Transaction{}
	for _, tx := range s.txs {
		if tx.AccountID == account {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

// ---- shares ----

func (s *Store) CreateShare(_ context.Context, grant *models.ShareGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if grant.ID.IsZero() {
		grant.ID = primitive.NewObjectID()
	}
	if _, ok := s.shares[grant.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *grant
	s.shares[grant.ID] = &cp
	return nil
}

func (s *Store) SharesByResource(_ context.Context, resourceType string, resourceID primitive.ObjectID) ([]models.ShareGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ShareGrant
	for _, grant := range s.shares {
		if grant.ResourceType == resourceType && grant.ResourceID == resourceID {
			out = append(out, *grant)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---- ordering helpers ----

func sortFoldersByName(folders []models.Folder) {
	sort.Slice(folders, func(i, j int) bool {
		if folders[i].Name != folders[j].Name {
			return folders[i].Name < folders[j].Name
		}
		return folders[i].ID.Hex() < folders[j].ID.Hex()
	})
}

func sortFilesByName(files []models.File) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].Name != files[j].Name {
			return files[i].Name < files[j].Name
		}
		return files[i].ID.Hex() < files[j].ID.Hex()
	})
}

func sortTrash(contents *models.TrashContents) {
	sort.Slice(contents.Files, func(i, j int) bool {
		di, dj := contents.Files[i].DeletedAt, contents.Files[j].DeletedAt
		if di != nil && dj != nil && !di.Equal(*dj) {
			return di.After(*dj)
		}
		return contents.Files[i].ID.Hex() < contents.Files[j].ID.Hex()
	})
	sort.Slice(contents.Folders, func(i, j int) bool {
		di, dj := contents.Folders[i].DeletedAt, contents.Folders[j].DeletedAt
		if di != nil && dj != nil && !di.Equal(*dj) {
			return di.After(*dj)
		}
		return contents.Folders[i].ID.Hex() < contents.Folders[j].ID.Hex()
	})
}
